//nolint:funlen // ok for tests
package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitbox/race-intel-go/pkg/model"
)

func intPtr(v int) *int {
	return &v
}

func TestPredictor_AnalyzeUndercut(t *testing.T) {
	p := NewPredictor()
	player := &model.PlayerState{
		DriverID:    "me",
		CurrentLap:  10,
		GapAheadSec: 5.0,
		FuelPerLap:  2.1,
	}
	opponent := &model.OpponentModel{
		DriverID:        "42",
		ConfidenceScore: 0.8,
		Degradation:     &model.DegradationResult{Slope: 0.1},
		PredictedPitLap: intPtr(13),
	}
	race := &model.RaceState{CurrentLap: 10}

	got := p.AnalyzeUndercut(player, opponent, race)
	if got == nil {
		t.Fatal("no analysis returned")
	}
	// pit one lap before the opponent
	assert.Equal(t, 12, got.OptimalPitLap)
	// 5.0 - 22 + 0.3*3 = -16.1: we emerge ahead
	assert.InDelta(t, -16.1, got.ProjectedGapSec, 1e-9)
	assert.True(t, got.Success)
	// 0.5 +0.2 conf +0.1 degradation +0.1 pit window +0.1 fuel = 1.0
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestPredictor_AnalyzeUndercut_UnknownPitLap(t *testing.T) {
	p := NewPredictor()
	p.SetPitDelta(30)
	player := &model.PlayerState{CurrentLap: 10, GapAheadSec: 2.0}
	opponent := &model.OpponentModel{DriverID: "42", ConfidenceScore: 0.5}

	got := p.AnalyzeUndercut(player, opponent, &model.RaceState{CurrentLap: 10})
	if got == nil {
		t.Fatal("no analysis returned")
	}
	assert.Equal(t, 12, got.OptimalPitLap)
	// 2.0 - 30 + 0.3*2
	assert.InDelta(t, -27.4, got.ProjectedGapSec, 1e-9)
	// nothing known about the opponent: base confidence only
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)
}

func TestPredictor_AssessThreat_Bands(t *testing.T) {
	p := NewPredictor()
	tests := []struct {
		name      string
		gapBehind float64
		wantLaps  int
		wantLevel model.ThreatLevel
	}{
		{name: "imminent at 1 lap", gapBehind: 0.5, wantLaps: 1, wantLevel: model.ThreatImminent},
		{name: "high at 3 laps", gapBehind: 1.5, wantLaps: 3, wantLevel: model.ThreatHigh},
		{name: "medium at 8 laps", gapBehind: 4.0, wantLaps: 8, wantLevel: model.ThreatMedium},
		{name: "low beyond 8 laps", gapBehind: 6.0, wantLaps: 12, wantLevel: model.ThreatLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := &model.PlayerState{
				GapBehindSec:     tt.gapBehind,
				DegradationSlope: 0.6,
			}
			chaser := &model.OpponentModel{
				DriverID:    "42",
				Degradation: &model.DegradationResult{Slope: 0.1},
			}
			got := p.AssessThreat(player, chaser, nil)
			if got == nil {
				t.Fatal("no assessment returned")
			}
			assert.InDelta(t, 0.5, got.ClosingRate, 1e-9)
			if got.LapsUntilCatch == nil {
				t.Fatal("lapsUntilCatch missing while closing")
			}
			assert.Equal(t, tt.wantLaps, *got.LapsUntilCatch)
			assert.Equal(t, tt.wantLevel, got.Level)
		})
	}
}

func TestPredictor_AssessThreat_NotClosing(t *testing.T) {
	p := NewPredictor()
	player := &model.PlayerState{GapBehindSec: 2.0, DegradationSlope: 0.1}
	chaser := &model.OpponentModel{
		DriverID:    "42",
		Degradation: &model.DegradationResult{Slope: 0.3},
	}
	got := p.AssessThreat(player, chaser, nil)
	assert.Equal(t, model.ThreatNone, got.Level)
	if got.LapsUntilCatch != nil {
		t.Errorf("lapsUntilCatch = %d, want none while extending", *got.LapsUntilCatch)
	}
}

func TestPredictor_GenerateRecommendation_FuelBeatsTires(t *testing.T) {
	p := NewPredictor()
	race := &model.RaceState{
		CurrentLap: 10,
		LapsToGo:   12,
		Player:     &model.PlayerState{DriverID: "me", CurrentLap: 10},
		PlayerFuel: &model.FuelStats{
			LapsRemaining: 5, PitRequired: true,
			AveragePerLap: 2.0, PitWindowOpen: 15, PitWindowOptimal: 14,
		},
		// massive degradation that would trigger the tire rule on its own
		PlayerDegradation: &model.DegradationResult{Slope: 0.5, Intercept: 90},
	}
	got := p.GenerateRecommendation(race)
	// fixed priority: fuel wins regardless of the tire magnitude
	assert.Equal(t, model.ActionBoxSoon, got.Action)
	assert.Equal(t, 13, got.TargetLap) // critical lap 15 minus 2
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	if len(got.Plan) == 0 {
		t.Error("fuel recommendation carries no stint plan")
	}
	if len(got.Alternatives) == 0 {
		t.Error("recommendation carries no alternatives")
	}
}

func TestPredictor_GenerateRecommendation_FuelImmediate(t *testing.T) {
	p := NewPredictor()
	race := &model.RaceState{
		CurrentLap: 10,
		LapsToGo:   5,
		Player:     &model.PlayerState{DriverID: "me"},
		PlayerFuel: &model.FuelStats{LapsRemaining: 0, PitRequired: true},
	}
	got := p.GenerateRecommendation(race)
	assert.Equal(t, model.ActionBoxNow, got.Action)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

func TestPredictor_GenerateRecommendation_TireRule(t *testing.T) {
	p := NewPredictor()
	race := &model.RaceState{
		CurrentLap: 10,
		LapsToGo:   5,
		Player:     &model.PlayerState{DriverID: "me"},
		PlayerFuel: &model.FuelStats{LapsRemaining: 20},
		PlayerDegradation: &model.DegradationResult{
			Slope: 0.25, Intercept: 90,
		},
	}
	got := p.GenerateRecommendation(race)
	assert.Equal(t, model.ActionBoxNext, got.Action)
	assert.Equal(t, 11, got.TargetLap)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestPredictor_GenerateRecommendation_ImminentThreat(t *testing.T) {
	p := NewPredictor()
	race := &model.RaceState{
		CurrentLap: 10,
		LapsToGo:   5,
		Player: &model.PlayerState{
			DriverID:         "me",
			GapBehindSec:     0.4,
			DegradationSlope: 0.5,
		},
		PlayerFuel: &model.FuelStats{LapsRemaining: 20},
		Opponents: []*model.OpponentModel{
			{DriverID: "42", Degradation: &model.DegradationResult{Slope: 0.0}},
		},
	}
	got := p.GenerateRecommendation(race)
	assert.Equal(t, model.ActionDefend, got.Action)
	assert.InDelta(t, 0.85, got.Confidence, 1e-9)
}

func TestPredictor_GenerateRecommendation_Default(t *testing.T) {
	p := NewPredictor()
	race := &model.RaceState{
		CurrentLap: 10,
		LapsToGo:   5,
		Player:     &model.PlayerState{DriverID: "me"},
	}
	got := p.GenerateRecommendation(race)
	assert.Equal(t, model.ActionStayOut, got.Action)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
}

func TestPredictor_GenerateRecommendation_NoPlayerData(t *testing.T) {
	p := NewPredictor()
	got := p.GenerateRecommendation(nil)
	assert.Equal(t, model.ActionStayOut, got.Action)
	assert.InDelta(t, 0.0, got.Confidence, 1e-9)
	got = p.GenerateRecommendation(&model.RaceState{CurrentLap: 3})
	assert.Equal(t, model.ActionStayOut, got.Action)
	assert.InDelta(t, 0.0, got.Confidence, 1e-9)
}
