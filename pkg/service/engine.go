package service

import (
	"errors"

	"github.com/pitbox/race-intel-go/pkg/config"
	"github.com/pitbox/race-intel-go/pkg/model"
	"github.com/pitbox/race-intel-go/pkg/processing/detector"
	"github.com/pitbox/race-intel-go/pkg/processing/explain"
	"github.com/pitbox/race-intel-go/pkg/processing/strategy"
	"github.com/pitbox/race-intel-go/pkg/utils/broadcast"
)

var ErrSessionNotFound = errors.New("session not found")

// triggerBuffer decouples the detector from slow trigger consumers.
const triggerBuffer = 64

// Engine bundles the analysis components of one active session.
// Concurrent sessions never share an engine; concurrent callers of the
// same engine must serialize (one worker per session).
type Engine struct {
	SessionID string
	Detector  *detector.Detector
	Builder   *explain.Builder
	Predictor *strategy.Predictor

	triggerChan chan *model.IncidentTrigger
	Triggers    broadcast.Server[*model.IncidentTrigger]
}

func newEngine(sessionID string, thresholds config.Thresholds) *Engine {
	triggerChan := make(chan *model.IncidentTrigger, triggerBuffer)
	return &Engine{
		SessionID: sessionID,
		Detector: detector.NewDetector(
			detector.WithThresholds(thresholds),
			detector.WithTriggerSink(triggerChan),
		),
		Builder:     explain.NewBuilder(explain.WithThresholds(thresholds)),
		Predictor:   strategy.NewPredictor(strategy.WithThresholds(thresholds)),
		triggerChan: triggerChan,
		Triggers:    broadcast.NewServer(sessionID, "triggers", triggerChan),
	}
}

// ProcessFrame feeds one frame to the session's detector.
func (e *Engine) ProcessFrame(frame *model.TelemetryFrame) []*model.IncidentTrigger {
	return e.Detector.ProcessFrame(frame)
}

func (e *Engine) Close() {
	e.Triggers.Close()
}

// SessionLookup owns one engine per active session. It is the
// composition root's handle on the engine instances; no package-level
// singleton exists.
type SessionLookup struct {
	thresholds config.Thresholds
	lookup     map[string]*Engine
}

type LookupOption func(s *SessionLookup)

func WithThresholds(t config.Thresholds) LookupOption {
	return func(s *SessionLookup) {
		s.thresholds = t
	}
}

func NewSessionLookup(opts ...LookupOption) *SessionLookup {
	ret := &SessionLookup{
		thresholds: config.DefaultThresholds(),
		lookup:     make(map[string]*Engine),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Resolve returns the engine for sessionID, creating it on first use.
func (s *SessionLookup) Resolve(sessionID string) *Engine {
	if e, ok := s.lookup[sessionID]; ok {
		return e
	}
	e := newEngine(sessionID, s.thresholds)
	s.lookup[sessionID] = e
	return e
}

func (s *SessionLookup) Get(sessionID string) (*Engine, error) {
	if e, ok := s.lookup[sessionID]; ok {
		return e, nil
	}
	return nil, ErrSessionNotFound
}

// Remove closes and drops the engine of an ended session.
func (s *SessionLookup) Remove(sessionID string) {
	if e, ok := s.lookup[sessionID]; ok {
		e.Close()
		delete(s.lookup, sessionID)
	}
}

func (s *SessionLookup) Sessions() []string {
	ret := make([]string, 0, len(s.lookup))
	for k := range s.lookup {
		ret = append(ret, k)
	}
	return ret
}

func (s *SessionLookup) Clear() {
	for _, e := range s.lookup {
		e.Close()
	}
	s.lookup = make(map[string]*Engine)
}
