package model

// LapData is one completed lap as reported by the lap-completion
// tracker. A lap counts toward degradation only when it is clean and
// neither an in- nor an out-lap.
type LapData struct {
	LapTimeMs float64  `json:"lapTimeMs"`
	FuelUsed  float64  `json:"fuelUsed"`
	Flags     LapFlags `json:"flags"`
}

type LapFlags struct {
	IsClean  bool `json:"isClean"`
	IsInLap  bool `json:"isInLap"`
	IsOutLap bool `json:"isOutLap"`
}

// DegradationResult is the linear trend of lap time over stint-lap
// position. Slope is in s/lap; positive means degrading.
type DegradationResult struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"` // baseline lap time in s
	R2        float64 `json:"r2"`
	// nil when no cliff is projected or the projection falls inside the
	// observed laps (noisy data, not a prediction)
	ProjectedCliffLap *int `json:"projectedCliffLap,omitempty"`
}

type FuelStats struct {
	AveragePerLap float64 `json:"averagePerLap"`
	MinPerLap     float64 `json:"minPerLap"`
	MaxPerLap     float64 `json:"maxPerLap"`
	LapsRemaining int     `json:"lapsRemaining"`
	// when no pit is structurally required both window fields hold
	// totalRaceLaps+1 and PitRequired is false
	PitRequired      bool `json:"pitRequired"`
	PitWindowOpen    int  `json:"pitWindowOpen"`
	PitWindowOptimal int  `json:"pitWindowOptimal"`
}
