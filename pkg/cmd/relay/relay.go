package relay

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/pitbox/race-intel-go/log"
	cmdutil "github.com/pitbox/race-intel-go/pkg/cmd/util"
	"github.com/pitbox/race-intel-go/pkg/config"
	"github.com/pitbox/race-intel-go/pkg/model"
	"github.com/pitbox/race-intel-go/pkg/service"
)

func NewRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "consumes live telemetry from NATS and publishes triggers and explanations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay()
		},
	}
	return cmd
}

type relay struct {
	conn   *nats.Conn
	lookup *service.SessionLookup
	policy *service.AdvisoryPolicy
	l      *log.Logger
	// snapshots per session, bounded by snapshotBuffer
	snaps map[string][]model.WorldSnapshot
	mutex sync.Mutex

	subFrames *nats.Subscription
	subSnaps  *nats.Subscription
	subDone   *nats.Subscription
}

// snapshotBuffer bounds the per-session snapshot history kept for
// explanation building. At 10 Hz this covers the last 30 seconds.
const snapshotBuffer = 300

func runRelay() error {
	if _, err := cmdutil.SetupLogger(); err != nil {
		return err
	}
	log.Info("starting relay",
		log.String("nats", config.NatsURL),
		log.String("prefix", config.SubjectPrefix))

	conn, err := nats.Connect(config.NatsURL,
		nats.Name("race-intel-relay"),
		nats.MaxReconnects(-1))
	if err != nil {
		return fmt.Errorf("could not connect to NATS: %w", err)
	}

	r := &relay{
		conn:   conn,
		lookup: service.NewSessionLookup(),
		policy: service.NewAdvisoryPolicy(
			service.WithMinConfidence(config.MinConfidence)),
		l:     log.Default().Named("relay"),
		snaps: make(map[string][]model.WorldSnapshot),
	}
	if err := r.setupSubscriptions(); err != nil {
		conn.Close()
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	v := <-sigChan
	log.Debug("got signal", log.Any("signal", v))
	r.shutdown()
	log.Info("relay terminated")
	return nil
}

func (r *relay) setupSubscriptions() error {
	var err error
	prefix := config.SubjectPrefix
	if r.subFrames, err = r.conn.Subscribe(
		prefix+".frames.*", r.handleFrame); err != nil {
		return err
	}
	if r.subSnaps, err = r.conn.Subscribe(
		prefix+".snapshots.*", r.handleSnapshot); err != nil {
		return err
	}
	if r.subDone, err = r.conn.Subscribe(
		prefix+".session.done", r.handleSessionDone); err != nil {
		return err
	}
	return nil
}

//nolint:errcheck // by design
func (r *relay) shutdown() {
	r.subFrames.Unsubscribe()
	r.subSnaps.Unsubscribe()
	r.subDone.Unsubscribe()
	r.mutex.Lock()
	r.lookup.Clear()
	r.mutex.Unlock()
	r.conn.Close()
}

func (r *relay) handleFrame(msg *nats.Msg) {
	var frame model.TelemetryFrame
	if err := oj.Unmarshal(msg.Data, &frame); err != nil {
		r.l.Warn("discarding malformed frame",
			log.String("subject", msg.Subject), log.ErrorField(err))
		return
	}
	sessionID := frame.SessionID
	if sessionID == "" {
		sessionID = lastToken(msg.Subject)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	engine := r.lookup.Resolve(sessionID)
	triggers := engine.ProcessFrame(&frame)
	for _, t := range triggers {
		if !r.policy.AcceptTrigger(t) {
			continue
		}
		r.publish(config.SubjectPrefix+".triggers."+sessionID, t)
		r.explainTrigger(engine, sessionID, t)
	}
}

// explainTrigger maps a forwarded trigger to its explanation builder.
// Not every trigger type has one; spins and decelerations go out as
// plain triggers.
func (r *relay) explainTrigger(
	engine *service.Engine, sessionID string, t *model.IncidentTrigger,
) {
	snaps := r.snaps[sessionID]
	if len(snaps) == 0 {
		return
	}
	var packet *model.GroundedFactPacket
	switch t.Type {
	case model.TriggerIncidentCountIncrease:
		if len(t.NearbyDriverIDs) > 0 {
			packet = engine.Builder.BuildContact(
				t.PrimaryDriverID, t.NearbyDriverIDs[0], t.Timestamp, snaps)
		}
	case model.TriggerOffTrackDetected:
		packet = engine.Builder.BuildOffTrack(t.PrimaryDriverID, t.Timestamp, snaps)
	}
	if packet == nil || !r.policy.AcceptPacket(packet) {
		return
	}
	r.publish(config.SubjectPrefix+".explanations."+sessionID, packet)
}

func (r *relay) handleSnapshot(msg *nats.Msg) {
	var snap model.WorldSnapshot
	if err := oj.Unmarshal(msg.Data, &snap); err != nil {
		r.l.Warn("discarding malformed snapshot",
			log.String("subject", msg.Subject), log.ErrorField(err))
		return
	}
	sessionID := snap.SessionID
	if sessionID == "" {
		sessionID = lastToken(msg.Subject)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	buf := append(r.snaps[sessionID], snap)
	if len(buf) > snapshotBuffer {
		buf = buf[len(buf)-snapshotBuffer:]
	}
	r.snaps[sessionID] = buf
}

func (r *relay) handleSessionDone(msg *nats.Msg) {
	sessionID := strings.TrimSpace(string(msg.Data))
	if sessionID == "" {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.lookup.Remove(sessionID)
	delete(r.snaps, sessionID)
	r.l.Info("session ended", log.String("session", sessionID))
}

func (r *relay) publish(subject string, v any) {
	data, err := oj.Marshal(v)
	if err != nil {
		r.l.Error("could not marshal message",
			log.String("subject", subject), log.ErrorField(err))
		return
	}
	if err := r.conn.Publish(subject, data); err != nil {
		r.l.Error("could not publish message",
			log.String("subject", subject), log.ErrorField(err))
	}
}

func lastToken(subject string) string {
	idx := strings.LastIndex(subject, ".")
	if idx < 0 {
		return subject
	}
	return subject[idx+1:]
}
