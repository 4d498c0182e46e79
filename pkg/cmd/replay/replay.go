package replay

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/pitbox/race-intel-go/log"
	cmdutil "github.com/pitbox/race-intel-go/pkg/cmd/util"
	"github.com/pitbox/race-intel-go/pkg/config"
	"github.com/pitbox/race-intel-go/pkg/model"
	"github.com/pitbox/race-intel-go/pkg/service"
)

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <recording>",
		Short: "replays a recorded telemetry file through the engine",
		Long: `replays a JSON-lines recording. Each line holds either a
telemetry frame ({"frame": ...}) or a world snapshot ({"snapshot": ...}).
Triggers and explanations are logged as they would have fired live.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args[0])
		},
	}
	cmd.Flags().IntVar(&config.ReplaySpeed, "speed", 1,
		"replay speed multiplier (0 means: go as fast as possible)")
	return cmd
}

// recordedLine is one line of a recording. Exactly one field is set.
type recordedLine struct {
	Frame    *model.TelemetryFrame `json:"frame,omitempty"`
	Snapshot *model.WorldSnapshot  `json:"snapshot,omitempty"`
}

// lines can get large with full grids; 1 MB covers 64 cars comfortably
const maxLineSize = 1 << 20

//nolint:funlen // sequential replay loop reads better unsplit
func runReplay(filename string) error {
	if _, err := cmdutil.SetupLogger(); err != nil {
		return err
	}
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open recording: %w", err)
	}
	defer f.Close()

	l := log.Default().Named("replay")
	lookup := service.NewSessionLookup()
	defer lookup.Clear()
	policy := service.NewAdvisoryPolicy(
		service.WithMinConfidence(config.MinConfidence))
	snaps := make(map[string][]model.WorldSnapshot)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lastSessionTime := -1.0
	lineNo := 0
	frames := 0
	fired := 0
	start := time.Now()
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var line recordedLine
		if err := oj.Unmarshal(raw, &line); err != nil {
			l.Warn("skipping malformed line",
				log.Int("line", lineNo), log.ErrorField(err))
			continue
		}
		if line.Snapshot != nil {
			sid := line.Snapshot.SessionID
			snaps[sid] = append(snaps[sid], *line.Snapshot)
			continue
		}
		if line.Frame == nil {
			continue
		}
		frame := line.Frame
		pace(lastSessionTime, frame.SessionTimeMs)
		lastSessionTime = frame.SessionTimeMs
		frames++

		engine := lookup.Resolve(frame.SessionID)
		for _, t := range engine.ProcessFrame(frame) {
			if !policy.AcceptTrigger(t) {
				continue
			}
			fired++
			l.Info("trigger",
				log.String("type", string(t.Type)),
				log.String("driver", t.PrimaryDriverID),
				log.Float64("sessionTimeMs", t.SessionTimeMs),
				log.Any("data", t.Data))
			logExplanation(l, policy, engine, t, snaps[frame.SessionID])
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("could not read recording: %w", err)
	}
	l.Info("replay finished",
		log.Int("frames", frames),
		log.Int("triggers", fired),
		log.Duration("took", time.Since(start)))
	return nil
}

func logExplanation(
	l *log.Logger,
	policy *service.AdvisoryPolicy,
	engine *service.Engine,
	t *model.IncidentTrigger,
	snaps []model.WorldSnapshot,
) {
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
	if packet == nil || !policy.AcceptPacket(packet) {
		return
	}
	data, err := oj.Marshal(packet)
	if err != nil {
		return
	}
	l.Info("explanation",
		log.String("type", string(packet.Type)),
		log.Float64("confidence", packet.Confidence),
		log.String("facts", string(data)))
}

// pace sleeps the scaled session time delta between two frames.
func pace(prevMs, curMs float64) {
	if config.ReplaySpeed <= 0 || prevMs < 0 || curMs <= prevMs {
		return
	}
	delta := time.Duration((curMs - prevMs) * float64(time.Millisecond))
	time.Sleep(delta / time.Duration(config.ReplaySpeed))
}
