package detector

import (
	"math"

	"github.com/google/uuid"

	"github.com/pitbox/race-intel-go/log"
	"github.com/pitbox/race-intel-go/pkg/config"
	"github.com/pitbox/race-intel-go/pkg/model"
	"github.com/pitbox/race-intel-go/pkg/processing/util"
)

// Sample is one entry of a driver's rolling history buffer.
type Sample struct {
	SessionTimeMs float64
	LapDistPct    float64
	Speed         float64
	Yaw           float64
	OnTrack       bool
}

// driverState holds the last-seen values per driver plus the bounded
// FIFO history. All state belongs to exactly one session and is
// discarded when the observed sessionId changes.
type driverState struct {
	lapDistPct    float64
	speed         float64
	yaw           float64
	incidentCount int
	onTrack       bool
	lapNumber     int
	history       []Sample
}

type Observer func(trigger *model.IncidentTrigger)

// Detector performs per-driver rolling analysis of telemetry frames
// and emits incident triggers. Callers touching the same detector must
// serialize; use one detector per active session.
type Detector struct {
	thresholds config.Thresholds
	states     map[string]*driverState
	sessionID  string
	observers  []Observer
	sink       chan<- *model.IncidentTrigger
	frames     int
	fired      int
	l          *log.Logger
}

type Option func(d *Detector)

func WithThresholds(t config.Thresholds) Option {
	return func(d *Detector) {
		d.thresholds = t
	}
}

func WithObserver(obs Observer) Option {
	return func(d *Detector) {
		d.observers = append(d.observers, obs)
	}
}

// WithTriggerSink attaches a channel for asynchronous fan-out.
// Sends never block; a full sink drops the trigger for that consumer
// (the caller still gets it via the ProcessFrame return value).
func WithTriggerSink(sink chan<- *model.IncidentTrigger) Option {
	return func(d *Detector) {
		d.sink = sink
	}
}

func WithLogger(l *log.Logger) Option {
	return func(d *Detector) {
		d.l = l
	}
}

func NewDetector(opts ...Option) *Detector {
	ret := &Detector{
		thresholds: config.DefaultThresholds(),
		states:     make(map[string]*driverState),
		l:          log.Default().Named("detector"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// ProcessFrame runs all detection rules against one frame and returns
// the triggers produced by it. A malformed driver record is skipped
// individually and never aborts the frame.
func (d *Detector) ProcessFrame(frame *model.TelemetryFrame) []*model.IncidentTrigger {
	if frame == nil {
		return nil
	}
	if frame.SessionID != d.sessionID {
		if d.sessionID != "" {
			d.l.Info("session changed, clearing driver state",
				log.String("old", d.sessionID), log.String("new", frame.SessionID),
				log.Int("drivers", len(d.states)))
		}
		d.states = make(map[string]*driverState)
		d.sessionID = frame.SessionID
	}
	d.frames++

	triggers := make([]*model.IncidentTrigger, 0)
	for i := range frame.Drivers {
		drv := &frame.Drivers[i]
		if !validRecord(drv) {
			d.l.Debug("skipping malformed driver record",
				log.String("driverId", drv.DriverID))
			continue
		}
		st, ok := d.states[drv.DriverID]
		if !ok {
			// first sighting seeds state with current values, no deltas
			st = &driverState{}
			d.states[drv.DriverID] = st
			d.update(st, drv, frame.SessionTimeMs)
			continue
		}
		fired := d.analyze(frame, drv, st)
		d.update(st, drv, frame.SessionTimeMs)
		for _, t := range fired {
			d.emit(t)
		}
		triggers = append(triggers, fired...)
	}
	d.fired += len(triggers)
	return triggers
}

// History returns a copy of the driver's rolling sample buffer,
// oldest first.
func (d *Detector) History(driverID string) []Sample {
	st, ok := d.states[driverID]
	if !ok {
		return nil
	}
	out := make([]Sample, len(st.history))
	copy(out, st.history)
	return out
}

// Reset clears all per-driver state and the session pointer.
func (d *Detector) Reset() {
	d.states = make(map[string]*driverState)
	d.sessionID = ""
}

// Stats returns processed frame and fired trigger counters.
func (d *Detector) Stats() (frames, fired int) {
	return d.frames, d.fired
}

//nolint:funlen // the four rules read better in one place
func (d *Detector) analyze(
	frame *model.TelemetryFrame,
	drv *model.DriverTelemetry,
	st *driverState,
) []*model.IncidentTrigger {
	ret := make([]*model.IncidentTrigger, 0)
	var nearby []string
	nearbyOnce := func() []string {
		if nearby == nil {
			nearby = d.nearbyDrivers(frame, drv)
		}
		return nearby
	}
	add := func(tType model.TriggerType, data map[string]any) {
		data["lapNumber"] = drv.LapNumber
		data["trackPosition"] = drv.LapDistPct
		data["speed"] = drv.Speed
		ret = append(ret, &model.IncidentTrigger{
			ID:              uuid.NewString(),
			Type:            tType,
			Timestamp:       frame.Timestamp,
			SessionTimeMs:   frame.SessionTimeMs,
			PrimaryDriverID: drv.DriverID,
			NearbyDriverIDs: nearbyOnce(),
			Data:            data,
		})
	}

	if drv.IncidentCount > st.incidentCount {
		add(model.TriggerIncidentCountIncrease, map[string]any{
			"previousCount": st.incidentCount,
			"newCount":      drv.IncidentCount,
			"delta":         drv.IncidentCount - st.incidentCount,
		})
	}
	if st.onTrack && !drv.OnTrack {
		add(model.TriggerOffTrackDetected, map[string]any{})
	}
	yawDelta := util.NormalizeAngle(drv.Yaw - st.yaw)
	if drv.Speed > d.thresholds.MinSpeedForSpin &&
		math.Abs(yawDelta) > d.thresholds.SpinThreshold {
		add(model.TriggerSpinDetected, map[string]any{
			"yawDelta": yawDelta,
		})
	}
	if st.speed > d.thresholds.MinSpeedForDecel &&
		drv.Speed/st.speed < d.thresholds.SpeedLossThreshold {
		add(model.TriggerSuddenDeceleration, map[string]any{
			"previousSpeed": st.speed,
			"speedLoss":     1 - drv.Speed/st.speed,
		})
	}
	return ret
}

func (d *Detector) nearbyDrivers(
	frame *model.TelemetryFrame, drv *model.DriverTelemetry,
) []string {
	ret := make([]string, 0)
	for i := range frame.Drivers {
		other := &frame.Drivers[i]
		if other.DriverID == drv.DriverID || !validRecord(other) {
			continue
		}
		// boundary pairs like 0.99/0.01 land a hair above the
		// threshold in floating point; the epsilon keeps them in
		if util.TrackDistPct(drv.LapDistPct, other.LapDistPct) <=
			d.thresholds.ProximityThreshold+1e-9 {
			ret = append(ret, other.DriverID)
		}
	}
	return ret
}

func (d *Detector) update(
	st *driverState, drv *model.DriverTelemetry, sessionTimeMs float64,
) {
	st.lapDistPct = drv.LapDistPct
	st.speed = drv.Speed
	st.yaw = drv.Yaw
	st.incidentCount = drv.IncidentCount
	st.onTrack = drv.OnTrack
	st.lapNumber = drv.LapNumber
	st.history = append(st.history, Sample{
		SessionTimeMs: sessionTimeMs,
		LapDistPct:    drv.LapDistPct,
		Speed:         drv.Speed,
		Yaw:           drv.Yaw,
		OnTrack:       drv.OnTrack,
	})
	if len(st.history) > d.thresholds.HistorySize {
		st.history = st.history[1:]
	}
}

func (d *Detector) emit(t *model.IncidentTrigger) {
	for _, obs := range d.observers {
		obs(t)
	}
	if d.sink != nil {
		select {
		case d.sink <- t:
		default:
			d.l.Warn("trigger sink full, dropping",
				log.String("type", string(t.Type)),
				log.String("driverId", t.PrimaryDriverID))
		}
	}
}

func validRecord(drv *model.DriverTelemetry) bool {
	if drv.DriverID == "" {
		return false
	}
	for _, v := range []float64{drv.LapDistPct, drv.Speed, drv.Yaw} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
