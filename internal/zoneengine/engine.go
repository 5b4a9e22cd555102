package zoneengine

import (
	"fmt"
	"math"

	"github.com/opticworks/rs-1/internal/tracker"
)

// EventFunc receives zone events as they are produced during Process. It is
// called synchronously from Process's goroutine; callers needing async
// delivery should buffer internally.
type EventFunc func(Event)

// Config tunes the speed threshold used to flag a zone as having a moving
// occupant.
type Config struct {
	MovingThresholdCmS int
}

// DefaultConfig returns the engine's default tuning (spec §4.7).
func DefaultConfig() Config {
	return Config{MovingThresholdCmS: MovingThresholdCmS}
}

// Engine holds the active zone map and per-zone/per-track occupancy state
// across frames. It is not safe for concurrent use.
type Engine struct {
	Config Config
	OnEvent EventFunc

	zones []Zone
	states []State

	// previousTrackZones[trackSlot][zoneIndex] tracks per-track membership
	// from the prior frame so Process can diff it for ENTER/EXIT events.
	// Track identity here is positional (tracker.MaxTracks slots), matching
	// the tracker's fixed slot model.
	previousTrackZones [tracker.MaxTracks][]bool

	FramesProcessed  int64
	OccupancyChanges int64
	TracksExcluded   int64
}

// New creates an Engine with no zones loaded.
func New(cfg Config) *Engine {
	return &Engine{Config: cfg}
}

// LoadZones atomically replaces the active zone map. All zones are validated
// first; on any validation failure the previous map is left untouched.
func (e *Engine) LoadZones(zones []Zone) error {
	if err := ValidateMap(zones); err != nil {
		return err
	}

	e.zones = make([]Zone, len(zones))
	copy(e.zones, zones)

	e.states = make([]State, len(zones))
	for i, z := range zones {
		e.states[i] = State{ZoneID: z.ID}
	}
	for t := range e.previousTrackZones {
		e.previousTrackZones[t] = make([]bool, len(zones))
	}
	return nil
}

// Zones returns the currently loaded zone map.
func (e *Engine) Zones() []Zone {
	return e.zones
}

// Zone looks up a single zone by ID.
func (e *Engine) Zone(id string) (Zone, bool) {
	for _, z := range e.zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// State returns the most recently computed state for a zone.
func (e *Engine) State(id string) (State, bool) {
	for _, s := range e.states {
		if s.ZoneID == id {
			return s, true
		}
	}
	return State{}, false
}

// Process evaluates one tracker frame against the loaded zone map: exclude
// zones are checked first and suppress a track from every include zone,
// then each include zone's occupancy and per-track membership is updated.
// ENTER/EXIT/OCCUPIED/VACANT events fire through e.OnEvent as they occur.
func (e *Engine) Process(frame tracker.TrackFrame) Frame {
	excluded := make([]bool, len(frame.Tracks))

	for t, tr := range frame.Tracks {
		for _, z := range e.zones {
			if z.Type != Exclude {
				continue
			}
			if PointInPolygon(int32(tr.X), int32(tr.Y), z.Vertices) {
				excluded[t] = true
				e.TracksExcluded++
				break
			}
		}
	}

	currentTrackZones := make([][]bool, len(frame.Tracks))
	for t := range currentTrackZones {
		currentTrackZones[t] = make([]bool, len(e.zones))
	}

	for zi := range e.zones {
		z := &e.zones[zi]
		state := &e.states[zi]
		state.ZoneID = z.ID

		if z.Type == Exclude {
			state.Occupied = false
			state.TargetCount = 0
			state.HasMoving = false
			continue
		}

		var trackIDs [MaxTracksPerZone]uint8
		count := 0
		hasMoving := false

		for t, tr := range frame.Tracks {
			if excluded[t] {
				continue
			}
			if !PointInPolygon(int32(tr.X), int32(tr.Y), z.Vertices) {
				continue
			}
			currentTrackZones[t][zi] = true

			if count < MaxTracksPerZone {
				trackIDs[count] = tr.ID
				count++
			}
			speedCmS := math.Sqrt(tr.VX*tr.VX+tr.VY*tr.VY) / 10
			if speedCmS >= float64(e.Config.MovingThresholdCmS) {
				hasMoving = true
			}
		}

		occupied := count > 0
		changed := state.Occupied != occupied

		state.TargetCount = count
		state.TrackIDs = trackIDs
		state.HasMoving = hasMoving

		if changed {
			state.Occupied = occupied
			state.LastChangeMs = frame.TimestampMs
			e.OccupancyChanges++
			e.emit(Event{
				Type:        eventForOccupancy(occupied),
				ZoneID:      z.ID,
				TimestampMs: frame.TimestampMs,
			})
		}
	}

	e.diffTrackMembership(frame, currentTrackZones)

	out := Frame{States: append([]State(nil), e.states...), TimestampMs: frame.TimestampMs}
	e.FramesProcessed++
	return out
}

func eventForOccupancy(occupied bool) EventType {
	if occupied {
		return EventOccupied
	}
	return EventVacant
}

// diffTrackMembership emits ENTER/EXIT for zone membership transitions by
// comparing this frame's per-track/per-zone flags against the prior frame's.
// Track identity is positional within the frame slice, which matches the
// tracker's stable emission order (slot order, not ID order) frame to frame.
func (e *Engine) diffTrackMembership(frame tracker.TrackFrame, current [][]bool) {
	for t := range current {
		var prev []bool
		if t < len(e.previousTrackZones) {
			prev = e.previousTrackZones[t]
		}
		for zi, z := range e.zones {
			wasIn := zi < len(prev) && prev[zi]
			isIn := current[t][zi]
			if !wasIn && isIn {
				e.emit(Event{Type: EventEnter, ZoneID: z.ID, TrackID: frame.Tracks[t].ID, TimestampMs: frame.TimestampMs})
			} else if wasIn && !isIn {
				e.emit(Event{Type: EventExit, ZoneID: z.ID, TimestampMs: frame.TimestampMs})
			}
		}
	}

	for t := range e.previousTrackZones {
		if t < len(current) {
			e.previousTrackZones[t] = current[t]
		} else {
			e.previousTrackZones[t] = make([]bool, len(e.zones))
		}
	}
}

func (e *Engine) emit(ev Event) {
	if e.OnEvent != nil {
		e.OnEvent(ev)
	}
}

// Reset clears all occupancy state without discarding the loaded zone map.
func (e *Engine) Reset() {
	for i := range e.states {
		e.states[i] = State{ZoneID: e.zones[i].ID}
	}
	for t := range e.previousTrackZones {
		e.previousTrackZones[t] = make([]bool, len(e.zones))
	}
	e.FramesProcessed = 0
}

func (e *Engine) String() string {
	return fmt.Sprintf("zoneengine.Engine{zones=%d frames=%d}", len(e.zones), e.FramesProcessed)
}
