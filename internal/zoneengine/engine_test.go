package zoneengine

import (
	"testing"

	"github.com/opticworks/rs-1/internal/tracker"
)

func square(cx, cy, half int32) []Vertex {
	return []Vertex{
		{X: cx - half, Y: cy - half},
		{X: cx + half, Y: cy - half},
		{X: cx + half, Y: cy + half},
		{X: cx - half, Y: cy + half},
	}
}

func TestPointInPolygonSquare(t *testing.T) {
	verts := square(0, 1000, 500)
	if !PointInPolygon(0, 1000, verts) {
		t.Fatal("center should be inside")
	}
	if PointInPolygon(2000, 1000, verts) {
		t.Fatal("far point should be outside")
	}
}

func TestValidateRejectsTooFewVertices(t *testing.T) {
	z := Zone{ID: "z1", Vertices: []Vertex{{X: 0, Y: 0}, {X: 1, Y: 1}}}
	if err := Validate(z); err == nil {
		t.Fatal("expected vertex count error")
	}
}

func TestValidateRejectsSelfIntersection(t *testing.T) {
	// Bowtie: (0,0)-(10,10)-(10,0)-(0,10) crosses itself.
	z := Zone{ID: "z1", Vertices: []Vertex{
		{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10},
	}}
	if err := Validate(z); err == nil {
		t.Fatal("expected self-intersection error")
	}
}

func TestProcessEmitsOccupiedAndVacant(t *testing.T) {
	e := New(DefaultConfig())
	if err := e.LoadZones([]Zone{{ID: "living", Type: Include, Vertices: square(0, 1000, 1000)}}); err != nil {
		t.Fatalf("LoadZones: %v", err)
	}

	var events []Event
	e.OnEvent = func(ev Event) { events = append(events, ev) }

	inside := tracker.TrackFrame{
		Tracks:      []tracker.Track{{ID: 1, Lifecycle: tracker.Confirmed, X: 0, Y: 1000}},
		TimestampMs: 100,
	}
	frame := e.Process(inside)
	if !frame.States[0].Occupied {
		t.Fatal("zone should be occupied")
	}

	outside := tracker.TrackFrame{
		Tracks:      []tracker.Track{{ID: 1, Lifecycle: tracker.Confirmed, X: 9000, Y: 9000}},
		TimestampMs: 130,
	}
	frame = e.Process(outside)
	if frame.States[0].Occupied {
		t.Fatal("zone should be vacant")
	}

	var sawOccupied, sawVacant, sawEnter, sawExit bool
	for _, ev := range events {
		switch ev.Type {
		case EventOccupied:
			sawOccupied = true
		case EventVacant:
			sawVacant = true
		case EventEnter:
			sawEnter = true
		case EventExit:
			sawExit = true
		}
	}
	if !sawOccupied || !sawVacant || !sawEnter || !sawExit {
		t.Fatalf("expected all four event types, got %+v", events)
	}
}

func TestExcludeZoneSuppressesInclude(t *testing.T) {
	e := New(DefaultConfig())
	err := e.LoadZones([]Zone{
		{ID: "room", Type: Include, Vertices: square(0, 1000, 2000)},
		{ID: "doorway", Type: Exclude, Vertices: square(0, 1000, 200)},
	})
	if err != nil {
		t.Fatalf("LoadZones: %v", err)
	}

	f := tracker.TrackFrame{
		Tracks:      []tracker.Track{{ID: 1, Lifecycle: tracker.Confirmed, X: 0, Y: 1000}},
		TimestampMs: 0,
	}
	out := e.Process(f)
	for _, s := range out.States {
		if s.ZoneID == "room" && s.Occupied {
			t.Fatal("track inside exclude zone should not occupy the overlapping include zone")
		}
	}
	if e.TracksExcluded != 1 {
		t.Fatalf("TracksExcluded = %d, want 1", e.TracksExcluded)
	}
}

func TestLoadZonesRejectsDuplicateIDs(t *testing.T) {
	e := New(DefaultConfig())
	zones := []Zone{
		{ID: "a", Vertices: square(0, 0, 100)},
		{ID: "a", Vertices: square(2000, 0, 100)},
	}
	if err := e.LoadZones(zones); err == nil {
		t.Fatal("expected duplicate id error")
	}
}
