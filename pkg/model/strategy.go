package model

// PlayerState is the player's side of the strategy inputs. It is
// populated by the hosting process from telemetry and lap records.
type PlayerState struct {
	DriverID         string  `json:"driverId"`
	CurrentLap       int     `json:"currentLap"`
	GapAheadSec      float64 `json:"gapAheadSec"`  // to the car we chase
	GapBehindSec     float64 `json:"gapBehindSec"` // to the car chasing us
	FuelLevel        float64 `json:"fuelLevel"`
	FuelPerLap       float64 `json:"fuelPerLap"`
	DegradationSlope float64 `json:"degradationSlope"`
	TireAgeLaps      int     `json:"tireAgeLaps"`
}

// OpponentModel is produced by the opponent-modeling collaborator,
// already populated with degradation/fuel-derived fields.
type OpponentModel struct {
	DriverID        string             `json:"driverId"`
	ConfidenceScore float64            `json:"confidenceScore"`
	Degradation     *DegradationResult `json:"degradation,omitempty"`
	Fuel            *FuelStats         `json:"fuel,omitempty"`
	// predicted earliest pit lap, nil when unknown
	PredictedPitLap *int `json:"predictedPitLap,omitempty"`
}

type RaceState struct {
	SessionID         string             `json:"sessionId"`
	CurrentLap        int                `json:"currentLap"`
	LapsToGo          int                `json:"lapsToGo"`
	TotalRaceLaps     int                `json:"totalRaceLaps"`
	Player            *PlayerState       `json:"player,omitempty"`
	PlayerFuel        *FuelStats         `json:"playerFuel,omitempty"`
	PlayerDegradation *DegradationResult `json:"playerDegradation,omitempty"`
	Opponents         []*OpponentModel   `json:"opponents,omitempty"`
}

type UndercutAnalysis struct {
	OpponentID      string  `json:"opponentId"`
	OptimalPitLap   int     `json:"optimalPitLap"`
	ProjectedGapSec float64 `json:"projectedGapSec"` // negative: we emerge ahead
	Success         bool    `json:"success"`
	Confidence      float64 `json:"confidence"`
}

type ThreatLevel string

const (
	ThreatImminent ThreatLevel = "imminent"
	ThreatHigh     ThreatLevel = "high"
	ThreatMedium   ThreatLevel = "medium"
	ThreatLow      ThreatLevel = "low"
	ThreatNone     ThreatLevel = "none"
)

type ThreatAssessment struct {
	OpponentID  string      `json:"opponentId"`
	ClosingRate float64     `json:"closingRate"` // s/lap, positive: chaser closing
	// nil when the gap is stable or extending
	LapsUntilCatch *int        `json:"lapsUntilCatch,omitempty"`
	Level          ThreatLevel `json:"level"`
	Recommendation string      `json:"recommendation"`
}

type RecommendedAction string

const (
	ActionBoxNow    RecommendedAction = "box_now"
	ActionBoxSoon   RecommendedAction = "box_soon"
	ActionBoxNext   RecommendedAction = "box_next_lap"
	ActionDefend    RecommendedAction = "defend"
	ActionStayOut   RecommendedAction = "stay_out"
)

type StrategicRecommendation struct {
	Action       RecommendedAction `json:"action"`
	TargetLap    int               `json:"targetLap,omitempty"`
	Reason       string            `json:"reason"`
	Confidence   float64           `json:"confidence"`
	Alternatives []string          `json:"alternatives,omitempty"`
	// coarse stint plan to the finish, one line per part
	Plan []string `json:"plan,omitempty"`
}
