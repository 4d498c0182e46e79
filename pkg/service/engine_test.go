package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pitbox/race-intel-go/pkg/model"
)

func telemetry(session string, sessionTimeMs float64, incidents int) *model.TelemetryFrame {
	return &model.TelemetryFrame{
		SessionID:     session,
		Timestamp:     time.UnixMilli(int64(sessionTimeMs)),
		SessionTimeMs: sessionTimeMs,
		Drivers: []model.DriverTelemetry{
			{
				DriverID:      "1",
				LapDistPct:    0.1,
				Speed:         50,
				IncidentCount: incidents,
				OnTrack:       true,
				LapNumber:     2,
			},
		},
	}
}

func TestSessionLookup_OneEnginePerSession(t *testing.T) {
	lookup := NewSessionLookup()
	defer lookup.Clear()

	a := lookup.Resolve("s1")
	b := lookup.Resolve("s1")
	c := lookup.Resolve("s2")
	if a != b {
		t.Error("same session resolved to different engines")
	}
	if a == c {
		t.Error("different sessions share an engine")
	}
	assert.Len(t, lookup.Sessions(), 2)

	lookup.Remove("s1")
	if _, err := lookup.Get("s1"); err == nil {
		t.Error("removed session still resolvable")
	}
	if _, err := lookup.Get("s2"); err != nil {
		t.Errorf("Get(s2) = %v, want engine", err)
	}
}

func TestEngine_TriggersReachSubscribers(t *testing.T) {
	lookup := NewSessionLookup()
	defer lookup.Clear()

	engine := lookup.Resolve("s1")
	sub := engine.Triggers.Subscribe()
	defer engine.Triggers.CancelSubscription(sub)

	engine.ProcessFrame(telemetry("s1", 0, 0))
	got := engine.ProcessFrame(telemetry("s1", 16, 1))
	assert.Len(t, got, 1)

	select {
	case tr := <-sub:
		assert.Equal(t, model.TriggerIncidentCountIncrease, tr.Type)
		assert.Equal(t, "1", tr.PrimaryDriverID)
	case <-time.After(time.Second):
		t.Fatal("no trigger received via broadcast")
	}
}
