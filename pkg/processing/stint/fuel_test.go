package stint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitbox/race-intel-go/pkg/model"
)

func fuelLap(used float64) model.LapData {
	return model.LapData{FuelUsed: used, Flags: model.LapFlags{IsClean: true}}
}

func TestCalcFuel_RequiresTwoFuelLaps(t *testing.T) {
	if got := CalcFuel([]model.LapData{fuelLap(2.0)}, FuelParams{}); got != nil {
		t.Errorf("1 fuel lap produced %+v, want no result", got)
	}
	// zero-usage laps don't count
	laps := []model.LapData{fuelLap(2.0), fuelLap(0), fuelLap(0)}
	if got := CalcFuel(laps, FuelParams{}); got != nil {
		t.Errorf("got %+v, want no result with one positive-fuel lap", got)
	}
}

func TestCalcFuel_NoPitSentinel(t *testing.T) {
	// 20L left, 2.0L/lap, 5 laps to go: 10L needed, no stop required
	laps := []model.LapData{fuelLap(1.9), fuelLap(2.1)}
	got := CalcFuel(laps, FuelParams{
		CurrentFuel:      20,
		CurrentLap:       10,
		LapsToGo:         5,
		TotalRaceLaps:    15,
		SafetyMarginLaps: 1,
	})
	if got == nil {
		t.Fatal("no result, want stats")
	}
	assert.InDelta(t, 2.0, got.AveragePerLap, 1e-9)
	assert.InDelta(t, 1.9, got.MinPerLap, 1e-9)
	assert.InDelta(t, 2.1, got.MaxPerLap, 1e-9)
	assert.Equal(t, 10, got.LapsRemaining)
	assert.False(t, got.PitRequired)
	assert.Equal(t, 16, got.PitWindowOpen)
	assert.Equal(t, 16, got.PitWindowOptimal)
}

func TestCalcFuel_PitWindow(t *testing.T) {
	// 10L left at 2.0L/lap covers 5 laps, 12 to go: window opens lap 15
	laps := []model.LapData{fuelLap(2.0), fuelLap(2.0)}
	got := CalcFuel(laps, FuelParams{
		CurrentFuel:      10,
		CurrentLap:       10,
		LapsToGo:         12,
		TotalRaceLaps:    22,
		SafetyMarginLaps: 1,
	})
	if got == nil {
		t.Fatal("no result, want stats")
	}
	assert.True(t, got.PitRequired)
	assert.Equal(t, 5, got.LapsRemaining)
	assert.Equal(t, 15, got.PitWindowOpen)
	assert.Equal(t, 14, got.PitWindowOptimal)
}
