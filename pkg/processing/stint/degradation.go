package stint

import (
	"math"

	"github.com/samber/lo"

	"github.com/pitbox/race-intel-go/pkg/model"
)

const minCleanLaps = 3

// FitDegradation fits lap time against 1-indexed stint-lap position
// with ordinary least squares. Laps flagged as dirty, in- or out-laps
// are excluded. Returns nil with fewer than 3 usable laps; that is the
// expected early-stint condition, not an error.
func FitDegradation(laps []model.LapData, cliffThresholdPct float64) *model.DegradationResult {
	clean := lo.Filter(laps, func(l model.LapData, _ int) bool {
		return l.Flags.IsClean && !l.Flags.IsInLap && !l.Flags.IsOutLap
	})
	if len(clean) < minCleanLaps {
		return nil
	}

	n := float64(len(clean))
	var sumX, sumY float64
	for i, l := range clean {
		sumX += float64(i + 1)
		sumY += l.LapTimeMs / 1000
	}
	meanX := sumX / n
	meanY := sumY / n

	var ssXY, ssXX, ssTot float64
	for i, l := range clean {
		dx := float64(i+1) - meanX
		dy := l.LapTimeMs/1000 - meanY
		ssXY += dx * dy
		ssXX += dx * dx
		ssTot += dy * dy
	}
	// zero variance in x cannot happen with distinct lap indices, but
	// guard the division anyway
	if ssXX == 0 {
		return nil
	}
	slope := ssXY / ssXX
	intercept := meanY - slope*meanX

	var ssRes float64
	for i, l := range clean {
		pred := intercept + slope*float64(i+1)
		res := l.LapTimeMs/1000 - pred
		ssRes += res * res
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	ret := &model.DegradationResult{
		Slope:     slope,
		Intercept: intercept,
		R2:        r2,
	}
	if slope > 0 {
		cliff := int(math.Ceil(intercept * cliffThresholdPct / slope))
		// a cliff inside the observed laps signals noisy data rather
		// than a genuine future prediction
		if cliff > len(clean) {
			ret.ProjectedCliffLap = &cliff
		}
	}
	return ret
}
