package model

import "time"

type TriggerType string

const (
	TriggerIncidentCountIncrease TriggerType = "incident_count_increase"
	TriggerOffTrackDetected      TriggerType = "off_track_detected"
	TriggerSpinDetected          TriggerType = "spin_detected"
	TriggerSuddenDeceleration    TriggerType = "sudden_deceleration"
)

// IncidentTrigger is emitted by the event detector whenever one of the
// detection rules fires. Data carries the rule-specific values plus
// lapNumber, trackPosition and speed of the primary driver.
type IncidentTrigger struct {
	ID              string         `json:"id"`
	Type            TriggerType    `json:"type"`
	Timestamp       time.Time      `json:"timestamp"`
	SessionTimeMs   float64        `json:"sessionTimeMs"`
	PrimaryDriverID string         `json:"primaryDriverId"`
	NearbyDriverIDs []string       `json:"nearbyDriverIds"`
	Data            map[string]any `json:"triggerData"`
}
