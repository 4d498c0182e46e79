package explain

import (
	"math"
	"time"

	"github.com/pitbox/race-intel-go/log"
	"github.com/pitbox/race-intel-go/pkg/config"
	"github.com/pitbox/race-intel-go/pkg/model"
	"github.com/pitbox/race-intel-go/pkg/processing/util"
)

const mpsToKmh = 3.6

// Builder reconstructs grounded explanations from a supplied window of
// world snapshots. All entry points are pure given the snapshot slice;
// a failed snapshot lookup aborts the enclosing explanation (nil
// result, never a partial packet).
type Builder struct {
	thresholds config.Thresholds
	l          *log.Logger
}

type Option func(b *Builder)

func WithThresholds(t config.Thresholds) Option {
	return func(b *Builder) {
		b.thresholds = t
	}
}

func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		b.l = l
	}
}

func NewBuilder(opts ...Option) *Builder {
	ret := &Builder{
		thresholds: config.DefaultThresholds(),
		l:          log.Default().Named("explain"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// snapshotAt finds the snapshot closest to target. The lookup fails
// when the closest one is further away than the configured tolerance.
func (b *Builder) snapshotAt(
	snaps []model.WorldSnapshot, target time.Time,
) (*model.WorldSnapshot, bool) {
	var best *model.WorldSnapshot
	bestDiff := math.MaxFloat64
	for i := range snaps {
		diff := math.Abs(float64(snaps[i].Timestamp.Sub(target).Milliseconds()))
		if diff < bestDiff {
			bestDiff = diff
			best = &snaps[i]
		}
	}
	if best == nil || bestDiff > b.thresholds.SnapshotToleranceMs {
		return nil, false
	}
	return best, true
}

func speed(c *model.CarState) float64 {
	return math.Hypot(c.Velocity.X, c.Velocity.Y)
}

func carPair(snap *model.WorldSnapshot, a, b string) (*model.CarState, *model.CarState, bool) {
	ca, okA := snap.Cars[a]
	cb, okB := snap.Cars[b]
	if !okA || !okB {
		return nil, nil, false
	}
	return &ca, &cb, true
}

// BuildContact reconstructs a two-car contact from the snapshots
// around impactTime. Returns nil when the required snapshots or cars
// are missing.
//
//nolint:funlen // the derivation steps read better in sequence
func (b *Builder) BuildContact(
	primaryID, secondaryID string,
	impactTime time.Time,
	snaps []model.WorldSnapshot,
) *model.GroundedFactPacket {
	th := &b.thresholds
	impact, ok := b.snapshotAt(snaps, impactTime)
	if !ok {
		b.l.Debug("no snapshot near impact time", log.Time("impact", impactTime))
		return nil
	}
	turnInTime := impactTime.Add(-time.Duration(th.TurnInLookbackSec * float64(time.Second)))
	turnIn, ok := b.snapshotAt(snaps, turnInTime)
	if !ok {
		b.l.Debug("no snapshot near turn-in time", log.Time("turnIn", turnInTime))
		return nil
	}
	pImp, sImp, ok := carPair(impact, primaryID, secondaryID)
	if !ok {
		return nil
	}
	pTI, sTI, ok := carPair(turnIn, primaryID, secondaryID)
	if !ok {
		return nil
	}

	facts := &model.ContactFacts{OverlapSide: model.OverlapClear}
	confidence := 0.7

	// overlap at turn-in
	longDist := util.TrackDistMeters(pTI.LapDistPct, sTI.LapDistPct, th.RefTrackLengthM)
	if longDist < th.CarLengthM {
		facts.OverlapPctAtTurnIn = (th.CarLengthM - longDist) / th.CarLengthM
		if sTI.LaneOffset > pTI.LaneOffset {
			facts.OverlapSide = model.OverlapRight
		} else {
			facts.OverlapSide = model.OverlapLeft
		}
	}

	// who committed to the corner first (heuristic: 0.5G diff ~ 200ms)
	gDiff := math.Abs(pTI.LateralG) - math.Abs(sTI.LateralG)
	facts.TurnInDeltaMs = int(math.Round(gDiff * th.TurnInDeltaMsPerG))

	// racing room at the apex, when both cars are still visible there
	apexTime := impactTime.Add(time.Duration(th.ApexLookforwardSec * float64(time.Second)))
	if apex, okApex := b.snapshotAt(snaps, apexTime); okApex {
		if pApex, sApex, bothThere := carPair(apex, primaryID, secondaryID); bothThere {
			room := math.Max(0,
				math.Abs(pApex.LaneOffset-sApex.LaneOffset)-th.CarWidthM)
			facts.RacingRoomM = &room
		}
	}

	facts.ClosingSpeedKmh = math.Abs(speed(pTI)-speed(sTI)) * mpsToKmh
	facts.RelativeSpeedAtImpactKmh = math.Abs(speed(pImp)-speed(sImp)) * mpsToKmh

	facts.ContactPointPrimary, facts.ContactPointSecondary = contactPoints(pImp, sImp)

	switch {
	case facts.OverlapPctAtTurnIn > 0.4:
		confidence += 0.2
	case facts.OverlapPctAtTurnIn > 0 && facts.OverlapPctAtTurnIn < 0.1:
		confidence -= 0.2
	}
	if facts.RacingRoomM != nil {
		confidence += 0.1
	}
	if facts.ContactPointPrimary != "" {
		confidence += 0.05
	}
	confidence = math.Min(1.0, math.Max(0.3, confidence))

	return &model.GroundedFactPacket{
		Type:       model.ContactExplanation,
		SessionID:  impact.SessionID,
		EventTime:  impactTime,
		Cars:       model.PacketCars{Primary: primaryID, Secondary: secondaryID},
		Contact:    facts,
		Confidence: confidence,
	}
}

// contactPoints derives 2-letter corner codes (longitudinal F/R +
// lateral L/R) for the primary car; the secondary car gets the
// geometrically opposite corner.
func contactPoints(p, s *model.CarState) (primary, secondary string) {
	lonP, lonS := "F", "R"
	if util.SignedTrackDelta(p.LapDistPct, s.LapDistPct) < 0 {
		// secondary is behind: contact at primary's rear
		lonP, lonS = "R", "F"
	}
	latP, latS := "L", "R"
	if s.LaneOffset > p.LaneOffset {
		latP, latS = "R", "L"
	}
	return lonP + latP, lonS + latS
}

// BuildThreeWide measures how long three cars stayed side by side
// starting at startTime. Returns nil when the start snapshot or any of
// the three cars is unavailable at the start.
func (b *Builder) BuildThreeWide(
	leftID, middleID, rightID string,
	startTime time.Time,
	snaps []model.WorldSnapshot,
) *model.GroundedFactPacket {
	th := &b.thresholds
	start, ok := b.snapshotAt(snaps, startTime)
	if !ok {
		return nil
	}
	left, okL := start.Cars[leftID]
	middle, okM := start.Cars[middleID]
	right, okR := start.Cars[rightID]
	if !okL || !okM || !okR {
		return nil
	}
	avgSep := (math.Abs(left.LaneOffset-middle.LaneOffset) +
		math.Abs(middle.LaneOffset-right.LaneOffset)) / 2

	// step forward until the formation breaks up or data runs out
	duration := 0.0
	step := th.ThreeWideStepSec
	for i := 1; float64(i)*step <= th.ThreeWideScanSec+1e-9; i++ {
		offset := float64(i) * step
		at := startTime.Add(time.Duration(offset * float64(time.Second)))
		snap, okSnap := b.snapshotAt(snaps, at)
		if !okSnap {
			break
		}
		l, okL := snap.Cars[leftID]
		_, okM := snap.Cars[middleID]
		r, okR := snap.Cars[rightID]
		if !okL || !okM || !okR {
			break
		}
		if math.Abs(l.LaneOffset-r.LaneOffset) > 4*th.CarWidthM {
			break
		}
		duration = offset
	}

	confidence := 0.6
	if duration > 0.5 {
		confidence = 0.9
	}
	return &model.GroundedFactPacket{
		Type:      model.ThreeWideExplanation,
		SessionID: start.SessionID,
		EventTime: startTime,
		Cars: model.PacketCars{
			Primary: middleID, Secondary: leftID, Tertiary: rightID,
		},
		ThreeWide: &model.ThreeWideFacts{
			AvgLateralSeparationM: avgSep,
			DurationSec:           duration,
		},
		Confidence: confidence,
	}
}

// BuildOffTrack explains a single car leaving the track at the nearest
// snapshot. Returns nil when the snapshot or the car is missing.
func (b *Builder) BuildOffTrack(
	carID string,
	at time.Time,
	snaps []model.WorldSnapshot,
) *model.GroundedFactPacket {
	th := &b.thresholds
	snap, ok := b.snapshotAt(snaps, at)
	if !ok {
		return nil
	}
	car, okCar := snap.Cars[carID]
	if !okCar {
		return nil
	}

	// lane offset past ~1.0 means off the racing surface; the x5 scale
	// is a rough conversion to meters
	margin := math.Max(0, (math.Abs(car.LaneOffset)-1.0)*5)

	cause := model.CauseLostTraction
	switch {
	case car.LongitudinalG < -1.5:
		cause = model.CauseLockedUp
	default:
		for otherID, other := range snap.Cars {
			if otherID == carID {
				continue
			}
			if util.TrackDistMeters(car.LapDistPct, other.LapDistPct,
				th.RefTrackLengthM) < 1.5*th.CarLengthM {
				cause = model.CauseForcedWide
				break
			}
		}
	}

	return &model.GroundedFactPacket{
		Type:      model.OffTrackExplanation,
		SessionID: snap.SessionID,
		EventTime: at,
		Cars:      model.PacketCars{Primary: carID},
		OffTrack: &model.OffTrackFacts{
			MarginM: margin,
			Cause:   cause,
		},
		Confidence: 0.8,
	}
}
