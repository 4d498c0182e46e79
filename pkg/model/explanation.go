package model

import "time"

type FactPacketType string

const (
	ContactExplanation   FactPacketType = "CONTACT_EXPLANATION"
	ThreeWideExplanation FactPacketType = "THREE_WIDE_EXPLANATION"
	OffTrackExplanation  FactPacketType = "OFFTRACK_EXPLANATION"
)

type OverlapSide string

const (
	OverlapLeft  OverlapSide = "LEFT"
	OverlapRight OverlapSide = "RIGHT"
	OverlapClear OverlapSide = "CLEAR"
)

type OffTrackCause string

const (
	CauseLockedUp     OffTrackCause = "LOCKED_UP"
	CauseForcedWide   OffTrackCause = "FORCED_WIDE"
	CauseLostTraction OffTrackCause = "LOST_TRACTION"
)

// GroundedFactPacket is a confidence-scored, geometry-derived
// explanation of an incident. It is built only from the supplied
// snapshot data and is never retained by the engine.
type GroundedFactPacket struct {
	Type       FactPacketType  `json:"type"`
	SessionID  string          `json:"sessionId"`
	EventTime  time.Time       `json:"eventTime"`
	Cars       PacketCars      `json:"cars"`
	Contact    *ContactFacts   `json:"contact,omitempty"`
	ThreeWide  *ThreeWideFacts `json:"threeWide,omitempty"`
	OffTrack   *OffTrackFacts  `json:"offTrack,omitempty"`
	Confidence float64         `json:"confidence"`
}

type PacketCars struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
	Tertiary  string `json:"tertiary,omitempty"`
}

type ContactFacts struct {
	OverlapPctAtTurnIn float64     `json:"overlapPctAtTurnIn"`
	OverlapSide        OverlapSide `json:"overlapSide"`
	// positive: primary committed to the corner earlier
	TurnInDeltaMs            int      `json:"turnInDeltaMs"`
	RacingRoomM              *float64 `json:"racingRoomM,omitempty"`
	ClosingSpeedKmh          float64  `json:"closingSpeedKmh"`
	RelativeSpeedAtImpactKmh float64  `json:"relativeSpeedAtImpactKmh"`
	// 2-letter corner codes (F/R + L/R), secondary is the geometric opposite
	ContactPointPrimary   string `json:"contactPointPrimary,omitempty"`
	ContactPointSecondary string `json:"contactPointSecondary,omitempty"`
}

type ThreeWideFacts struct {
	AvgLateralSeparationM float64 `json:"avgLateralSeparationM"`
	DurationSec           float64 `json:"durationSec"`
}

type OffTrackFacts struct {
	MarginM float64       `json:"marginM"`
	Cause   OffTrackCause `json:"cause"`
}
