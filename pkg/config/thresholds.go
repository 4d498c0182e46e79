package config

// Thresholds collects the tunables of the analysis components.
// The heuristic values (TurnInDeltaMsPerG, FreshTireAdvantage) are
// uncalibrated and kept here so a hosting process can adjust them
// without code changes.
type Thresholds struct {
	// event detector
	HistorySize        int     // samples kept per driver (300 ~ 5s at 60Hz)
	SpinThreshold      float64 // rad of yaw change between frames
	SpeedLossThreshold float64 // speed ratio below which we call a sudden deceleration
	MinSpeedForSpin    float64 // below this a yaw swing is not a spin
	MinSpeedForDecel   float64 // below this we don't evaluate deceleration
	ProximityThreshold float64 // lapDistPct distance considered "nearby"

	// explanation builder
	CarLengthM          float64
	CarWidthM           float64
	TurnInLookbackSec   float64
	ApexLookforwardSec  float64
	SnapshotToleranceMs float64 // max |Δt| for a snapshot lookup
	TurnInDeltaMsPerG   float64 // 0.5G difference ~ 200ms
	ThreeWideScanSec    float64
	ThreeWideStepSec    float64
	RefTrackLengthM     float64 // reference length for pct->meter conversion

	// degradation / fuel
	CliffThresholdPct float64 // pace loss over baseline that defines the cliff
	SafetyMarginLaps  int

	// strategy
	FreshTireAdvantage float64 // s/lap gained on fresh tires
	PitDelta           float64 // s lost per pit stop
	TireSlopeCritical  float64 // s/lap degradation that forces a stop
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HistorySize:        300,
		SpinThreshold:      1.5,
		SpeedLossThreshold: 0.6,
		MinSpeedForSpin:    20,
		MinSpeedForDecel:   30,
		ProximityThreshold: 0.02,

		CarLengthM:          4.5,
		CarWidthM:           2.0,
		TurnInLookbackSec:   1.5,
		ApexLookforwardSec:  0.5,
		SnapshotToleranceMs: 200,
		TurnInDeltaMsPerG:   400,
		ThreeWideScanSec:    5.0,
		ThreeWideStepSec:    0.1,
		RefTrackLengthM:     5000,

		CliffThresholdPct: 0.03,
		SafetyMarginLaps:  1,

		FreshTireAdvantage: 0.3,
		PitDelta:           22,
		TireSlopeCritical:  0.2,
	}
}
