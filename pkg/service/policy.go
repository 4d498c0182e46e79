package service

import (
	"time"

	"github.com/pitbox/race-intel-go/pkg/model"
)

// AdvisoryPolicy gates what reaches the advisory surfaces: low
// confidence output is dropped and repeated triggers of the same kind
// for the same driver are rate limited. Keeps a driver-facing channel
// from being spammed during a messy lap.
type AdvisoryPolicy struct {
	minConfidence float64
	cooldowns     map[model.TriggerType]time.Duration
	lastSent      map[string]time.Time
	now           func() time.Time
}

type PolicyOption func(p *AdvisoryPolicy)

func WithMinConfidence(v float64) PolicyOption {
	return func(p *AdvisoryPolicy) {
		p.minConfidence = v
	}
}

func WithCooldown(t model.TriggerType, d time.Duration) PolicyOption {
	return func(p *AdvisoryPolicy) {
		p.cooldowns[t] = d
	}
}

// WithClock injects a time source (tests).
func WithClock(now func() time.Time) PolicyOption {
	return func(p *AdvisoryPolicy) {
		p.now = now
	}
}

func NewAdvisoryPolicy(opts ...PolicyOption) *AdvisoryPolicy {
	ret := &AdvisoryPolicy{
		minConfidence: 0.7,
		cooldowns: map[model.TriggerType]time.Duration{
			model.TriggerOffTrackDetected:      5 * time.Second,
			model.TriggerSpinDetected:          3 * time.Second,
			model.TriggerSuddenDeceleration:    2 * time.Second,
			model.TriggerIncidentCountIncrease: 500 * time.Millisecond,
		},
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// AcceptTrigger reports whether a trigger may be forwarded and, when
// it may, starts the cooldown for its type/driver pair.
func (p *AdvisoryPolicy) AcceptTrigger(t *model.IncidentTrigger) bool {
	if t == nil {
		return false
	}
	key := string(t.Type) + "/" + t.PrimaryDriverID
	cooldown, ok := p.cooldowns[t.Type]
	if !ok {
		cooldown = time.Second
	}
	now := p.now()
	if last, seen := p.lastSent[key]; seen && now.Sub(last) < cooldown {
		return false
	}
	p.lastSent[key] = now
	return true
}

// AcceptPacket applies the confidence gate to an explanation packet.
func (p *AdvisoryPolicy) AcceptPacket(packet *model.GroundedFactPacket) bool {
	return packet != nil && packet.Confidence >= p.minConfidence
}

// Reset clears all cooldown state (fresh session).
func (p *AdvisoryPolicy) Reset() {
	p.lastSent = make(map[string]time.Time)
}
