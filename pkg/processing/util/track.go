package util

import "math"

// TrackDistPct returns the wraparound distance between two lapDistPct
// values: the shorter of the direct and the around-the-loop distance.
func TrackDistPct(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, 1-d)
}

// TrackDistMeters is TrackDistPct scaled to a track length in meters.
func TrackDistMeters(a, b, trackLengthM float64) float64 {
	d := math.Abs(a-b) * trackLengthM
	return math.Min(d, trackLengthM-d)
}

// SignedTrackDelta returns b-a folded into [-0.5, 0.5); positive means
// b is ahead of a along the racing direction.
func SignedTrackDelta(a, b float64) float64 {
	d := b - a
	for d >= 0.5 {
		d -= 1
	}
	for d < -0.5 {
		d += 1
	}
	return d
}

// NormalizeAngle folds an angle into (-pi, pi].
func NormalizeAngle(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	for rad <= -math.Pi {
		rad += 2 * math.Pi
	}
	return rad
}
