package model

import "time"

// WorldSnapshot is one entry of the spatial-awareness buffer.
// The engine never owns these; a bounded, time-ordered collection is
// supplied per explanation request.
type WorldSnapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	SessionID string              `json:"sessionId"`
	Cars      map[string]CarState `json:"cars"`
}

type CarState struct {
	LapDistPct    float64 `json:"lapDistPct"`
	LaneOffset    float64 `json:"laneOffset"` // lateral offset from centerline
	Velocity      Vector2 `json:"velocity"`
	LateralG      float64 `json:"lateralG"`
	LongitudinalG float64 `json:"longitudinalG"`
}

type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
