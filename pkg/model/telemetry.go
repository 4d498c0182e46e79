package model

import "time"

// TelemetryFrame is one tick of the live telemetry stream.
// Frames arrive at tens of Hz and must be fed to the detector in
// non-decreasing timestamp order per session.
type TelemetryFrame struct {
	SessionID     string            `json:"sessionId"`
	Timestamp     time.Time         `json:"timestamp"`
	SessionTimeMs float64           `json:"sessionTimeMs"`
	Drivers       []DriverTelemetry `json:"drivers"`
}

type DriverTelemetry struct {
	DriverID      string  `json:"driverId"`
	LapDistPct    float64 `json:"lapDistPct"` // [0,1), wraps at s/f line
	Speed         float64 `json:"speed"`
	Yaw           float64 `json:"yaw"` // radians
	IncidentCount int     `json:"incidentCount"`
	OnTrack       bool    `json:"onTrack"`
	LapNumber     int     `json:"lapNumber"`
}
