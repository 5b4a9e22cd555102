// Package tracker implements the multi-target Kalman filter bank: a
// constant-velocity filter per track, gated nearest-neighbor association,
// and the Tentative/Confirmed/Occluded/Retired lifecycle state machine.
//
// This generalizes the teacher's LiDAR world-cluster tracker (constant
// velocity Kalman filter bank with a Tentative/Confirmed/Deleted lifecycle)
// to radar detections with a speed-scaled association gate and a four-state
// lifecycle that distinguishes a temporarily-occluded confirmed track from
// one that has actually been retired.
package tracker

import "math"

// Lifecycle is a track's place in the confirm/occlude/retire state machine.
type Lifecycle int

const (
	Tentative Lifecycle = iota
	Confirmed
	Occluded
	Retired
)

func (l Lifecycle) String() string {
	switch l {
	case Tentative:
		return "tentative"
	case Confirmed:
		return "confirmed"
	case Occluded:
		return "occluded"
	case Retired:
		return "retired"
	default:
		return "unknown"
	}
}

// MaxTracks is the maximum number of simultaneously non-Retired tracks.
const MaxTracks = 3

// Detection is a single per-frame radar observation, already filtered and
// unit-converted by the radar ingest layer.
type Detection struct {
	X, Y     float64 // millimetres
	SpeedCmS float64 // centimetres/second, signed
	Valid    bool
}

// Track is one slot in the tracker's fixed-size bank. ID 0 means the slot is
// unused (lifecycle is always Retired in that case).
type Track struct {
	ID        uint8
	Lifecycle Lifecycle

	// Kalman state: position in millimetres, velocity in millimetres/second.
	X, Y   float64
	VX, VY float64

	// P is the 4x4 state covariance, row-major: [x,y,vx,vy].
	P [16]float64

	ConsecutiveHits   int
	ConsecutiveMisses int

	FirstSeenMs int64
	LastSeenMs  int64

	Confidence int // 0..100
}

// speedMps returns the track's current speed in metres/second, used to
// scale the association gate.
func (t *Track) speedMps() float64 {
	vxMps := t.VX / 1000.0
	vyMps := t.VY / 1000.0
	return math.Sqrt(vxMps*vxMps + vyMps*vyMps)
}

// TrackFrame is the tracker's per-frame output: only Confirmed and Occluded
// tracks appear here.
type TrackFrame struct {
	Tracks     []Track
	TrackCount int
	TimestampMs int64
	FrameSeq   int64
}
