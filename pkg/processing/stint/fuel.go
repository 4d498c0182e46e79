package stint

import (
	"math"

	"github.com/samber/lo"

	"github.com/pitbox/race-intel-go/pkg/model"
)

const minFuelLaps = 2

type FuelParams struct {
	CurrentFuel      float64
	CurrentLap       int
	LapsToGo         int
	TotalRaceLaps    int
	SafetyMarginLaps int
}

// CalcFuel derives consumption stats and the pit window from laps with
// recorded fuel usage. Returns nil with fewer than 2 usable laps.
// When the remaining fuel covers the race, both window fields carry
// the sentinel TotalRaceLaps+1 ("never").
func CalcFuel(laps []model.LapData, p FuelParams) *model.FuelStats {
	fuelLaps := lo.Filter(laps, func(l model.LapData, _ int) bool {
		return l.FuelUsed > 0
	})
	if len(fuelLaps) < minFuelLaps {
		return nil
	}

	used := lo.Map(fuelLaps, func(l model.LapData, _ int) float64 {
		return l.FuelUsed
	})
	mean := lo.Sum(used) / float64(len(used))

	ret := &model.FuelStats{
		AveragePerLap: mean,
		MinPerLap:     lo.Min(used),
		MaxPerLap:     lo.Max(used),
		LapsRemaining: int(math.Floor(p.CurrentFuel / mean)),
	}

	if float64(p.LapsToGo)*mean <= p.CurrentFuel {
		// no stop structurally required
		ret.PitRequired = false
		ret.PitWindowOpen = p.TotalRaceLaps + 1
		ret.PitWindowOptimal = p.TotalRaceLaps + 1
		return ret
	}
	ret.PitRequired = true
	ret.PitWindowOpen = p.CurrentLap + ret.LapsRemaining
	ret.PitWindowOptimal = ret.PitWindowOpen - p.SafetyMarginLaps
	return ret
}
