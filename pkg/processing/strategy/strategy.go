package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/pitbox/race-intel-go/log"
	"github.com/pitbox/race-intel-go/pkg/config"
	"github.com/pitbox/race-intel-go/pkg/model"
	"github.com/pitbox/race-intel-go/pkg/processing/stint"
)

// Predictor turns player state, opponent models and race state into
// strategic outputs. The only mutable tunable is the pit delta;
// everything else comes from the thresholds.
type Predictor struct {
	thresholds config.Thresholds
	pitDelta   float64
	l          *log.Logger
}

type Option func(p *Predictor)

func WithThresholds(t config.Thresholds) Option {
	return func(p *Predictor) {
		p.thresholds = t
		p.pitDelta = t.PitDelta
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Predictor) {
		p.l = l
	}
}

func NewPredictor(opts ...Option) *Predictor {
	ret := &Predictor{
		thresholds: config.DefaultThresholds(),
		l:          log.Default().Named("strategy"),
	}
	ret.pitDelta = ret.thresholds.PitDelta
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// SetPitDelta adjusts the seconds lost per pit stop (track dependent).
func (p *Predictor) SetPitDelta(sec float64) {
	p.pitDelta = sec
}

func (p *Predictor) PitDelta() float64 {
	return p.pitDelta
}

// AnalyzeUndercut simulates pitting one lap before the opponent's
// predicted stop. A negative projected gap means we emerge ahead.
func (p *Predictor) AnalyzeUndercut(
	player *model.PlayerState,
	opponent *model.OpponentModel,
	race *model.RaceState,
) *model.UndercutAnalysis {
	if player == nil || opponent == nil {
		return nil
	}
	currentLap := player.CurrentLap
	if race != nil {
		currentLap = race.CurrentLap
	}

	optimalPitLap := currentLap + 2
	// laps we'd run on fresh tires while the opponent stays out
	lapDiff := 2
	if opponent.PredictedPitLap != nil {
		optimalPitLap = *opponent.PredictedPitLap - 1
		lapDiff = max(1, *opponent.PredictedPitLap-currentLap)
	}

	projected := player.GapAheadSec - p.pitDelta +
		p.thresholds.FreshTireAdvantage*float64(lapDiff)

	confidence := 0.5
	if opponent.ConfidenceScore > 0.7 {
		confidence += 0.2
	}
	if opponent.Degradation != nil {
		confidence += 0.1
	}
	if opponent.PredictedPitLap != nil {
		confidence += 0.1
	}
	if player.FuelPerLap > 0 {
		confidence += 0.1
	}
	confidence = math.Min(confidence, 1.0)

	return &model.UndercutAnalysis{
		OpponentID:      opponent.DriverID,
		OptimalPitLap:   optimalPitLap,
		ProjectedGapSec: projected,
		Success:         projected < 0,
		Confidence:      confidence,
	}
}

// AssessThreat rates the car behind. Closing rate is our degradation
// slope minus the chaser's; positive means they are coming.
func (p *Predictor) AssessThreat(
	player *model.PlayerState,
	chaser *model.OpponentModel,
	race *model.RaceState,
) *model.ThreatAssessment {
	if player == nil || chaser == nil {
		return nil
	}
	chaserSlope := 0.0
	if chaser.Degradation != nil {
		chaserSlope = chaser.Degradation.Slope
	}
	closing := player.DegradationSlope - chaserSlope

	ret := &model.ThreatAssessment{
		OpponentID:  chaser.DriverID,
		ClosingRate: closing,
	}
	if closing <= 0 || player.GapBehindSec < 0 {
		ret.Level = model.ThreatNone
		ret.Recommendation = "no action needed, gap is stable or extending"
		return ret
	}
	laps := int(math.Ceil(player.GapBehindSec / closing))
	ret.LapsUntilCatch = &laps
	switch {
	case laps <= 1:
		ret.Level = model.ThreatImminent
		ret.Recommendation = "defend now, cover the inside line"
	case laps <= 3:
		ret.Level = model.ThreatHigh
		ret.Recommendation = "prepare to defend within three laps"
	case laps <= 8:
		ret.Level = model.ThreatMedium
		ret.Recommendation = "monitor the gap, plan around their stop"
	default:
		ret.Level = model.ThreatLow
		ret.Recommendation = "maintain pace"
	}
	return ret
}

// GenerateRecommendation reconciles fuel, tire and threat constraints
// in strict priority order; the first matching rule wins regardless of
// the magnitudes behind the others.
//
//nolint:funlen // the priority ladder reads better in one place
func (p *Predictor) GenerateRecommendation(
	race *model.RaceState,
) *model.StrategicRecommendation {
	if race == nil || race.Player == nil {
		return &model.StrategicRecommendation{
			Action:     model.ActionStayOut,
			Reason:     "no player data available",
			Confidence: 0,
		}
	}

	// 1: fuel
	if fuel := race.PlayerFuel; fuel != nil &&
		fuel.LapsRemaining < race.LapsToGo+1 {
		criticalLap := race.CurrentLap + fuel.LapsRemaining
		rec := &model.StrategicRecommendation{
			Plan: p.planToFinish(race, fuel),
			Alternatives: []string{
				"extend by lifting and coasting",
				"switch to a fuel-save engine map",
			},
		}
		if criticalLap <= race.CurrentLap {
			rec.Action = model.ActionBoxNow
			rec.TargetLap = race.CurrentLap
			rec.Reason = "out of fuel this lap"
			rec.Confidence = 0.95
			return rec
		}
		rec.Action = model.ActionBoxSoon
		rec.TargetLap = criticalLap - 2
		rec.Reason = fmt.Sprintf("fuel critical from lap %d, box by lap %d",
			criticalLap, criticalLap-2)
		rec.Confidence = 0.9
		return rec
	}

	// 2: tire
	if deg := race.PlayerDegradation; deg != nil &&
		deg.Slope > p.thresholds.TireSlopeCritical {
		return &model.StrategicRecommendation{
			Action:     model.ActionBoxNext,
			TargetLap:  race.CurrentLap + 1,
			Reason:     fmt.Sprintf("tires falling off at %.2f s/lap", deg.Slope),
			Confidence: 0.8,
			Plan:       p.planToFinish(race, race.PlayerFuel),
			Alternatives: []string{
				"stay out and manage pace",
				"box now if traffic allows",
			},
		}
	}

	// 3: threat
	for _, opp := range race.Opponents {
		threat := p.AssessThreat(race.Player, opp, race)
		if threat != nil && threat.Level == model.ThreatImminent {
			return &model.StrategicRecommendation{
				Action:     model.ActionDefend,
				Reason:     fmt.Sprintf("%s is on us this lap", opp.DriverID),
				Confidence: 0.85,
				Alternatives: []string{
					"pit for fresh tires and undercut back",
					"let them by and follow",
				},
			}
		}
	}

	// 4: default
	return &model.StrategicRecommendation{
		Action:     model.ActionStayOut,
		Reason:     "no constraint forces a change",
		Confidence: 0.7,
		Alternatives: []string{
			"push now to build a pit gap",
			"box early for clean air",
		},
	}
}

// planToFinish backs a pit call with a coarse picture of the remaining
// race. Needs a baseline lap time (degradation intercept) and fuel
// stats; without them no plan is attached.
func (p *Predictor) planToFinish(
	race *model.RaceState, fuel *model.FuelStats,
) []string {
	if fuel == nil || race.PlayerDegradation == nil ||
		race.PlayerDegradation.Intercept <= 0 {
		return nil
	}
	plan, err := stint.PlanToFinish(&stint.PlanParams{
		CurrentLap:   race.CurrentLap,
		LapsToGo:     race.LapsToGo,
		FirstStint:   fuel.LapsRemaining,
		LapsPerStint: max(race.LapsToGo, 1),
		AvgLap:       time.Duration(race.PlayerDegradation.Intercept * float64(time.Second)),
		PitTime:      time.Duration(p.pitDelta * float64(time.Second)),
	})
	if err != nil {
		p.l.Debug("no stint plan", log.ErrorField(err))
		return nil
	}
	return plan.Outputs()
}
