// Package zoneengine maps confirmed/occluded tracks from the tracker onto
// user-defined polygon zones and emits per-zone occupancy state and
// enter/exit/occupied/vacant events.
//
// The ray-casting point-in-polygon test, the exclude-before-include
// evaluation order, and the per-track-per-zone membership diff that drives
// ENTER/EXIT events all follow the teacher's internal/lidar geometry and
// internal/lidar/cluster.go bookkeeping shape: fixed-size per-zone track-ID
// arrays and package-level constants for the limits. Process allocates its
// per-frame scratch slices on each call.
package zoneengine

import "github.com/opticworks/rs-1/internal/tracker"

const (
	MaxZones            = 16
	MaxVertices          = 8
	MaxTracksPerZone    = tracker.MaxTracks
	MovingThresholdCmS  = 10
)

// ZoneType selects whether a zone counts presence in, or excludes it from,
// occupancy output.
type ZoneType int

const (
	Include ZoneType = iota
	Exclude
)

func (t ZoneType) String() string {
	if t == Exclude {
		return "exclude"
	}
	return "include"
}

// Vertex is a single polygon vertex in millimeters, sensor-relative.
type Vertex struct {
	X, Y int32
}

// Zone is one user-defined polygon region.
type Zone struct {
	ID          string
	Name        string
	Type        ZoneType
	Vertices    []Vertex
	Sensitivity int // 0..100, reserved for future per-zone debounce tuning
}

// State is a zone's occupancy as of the most recently processed frame.
type State struct {
	ZoneID        string
	Occupied      bool
	TargetCount   int
	TrackIDs      [MaxTracksPerZone]uint8
	HasMoving     bool
	LastChangeMs  int64
}

// Frame is the per-tick output of Engine.Process: one State per configured
// zone, in zone-map order.
type Frame struct {
	States      []State
	TimestampMs int64
}

// EventType distinguishes the four kinds of zone transition.
type EventType int

const (
	EventEnter EventType = iota
	EventExit
	EventOccupied
	EventVacant
)

func (e EventType) String() string {
	switch e {
	case EventEnter:
		return "enter"
	case EventExit:
		return "exit"
	case EventOccupied:
		return "occupied"
	case EventVacant:
		return "vacant"
	default:
		return "unknown"
	}
}

// Event is emitted synchronously from Process whenever a track crosses a
// zone boundary or a zone's occupancy flips.
type Event struct {
	Type        EventType
	ZoneID      string
	TrackID     uint8
	TimestampMs int64
}
