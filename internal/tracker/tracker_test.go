package tracker

import "testing"

func TestTrackConfirmationAfterTwoHits(t *testing.T) {
	tr := New(DefaultConfig())

	det := []Detection{{X: 1000, Y: 2000, Valid: true}}

	f1 := tr.Update(det, 0)
	if len(f1.Tracks) != 0 {
		t.Fatalf("frame 1 should report no tracks (still tentative), got %d", len(f1.Tracks))
	}

	f2 := tr.Update(det, 30)
	if len(f2.Tracks) != 1 {
		t.Fatalf("frame 2 should report exactly one confirmed track, got %d", len(f2.Tracks))
	}
	got := f2.Tracks[0]
	if got.ID != 1 {
		t.Fatalf("track id = %d, want 1", got.ID)
	}
	if got.Lifecycle != Confirmed {
		t.Fatalf("lifecycle = %v, want Confirmed", got.Lifecycle)
	}

	dx := got.X - 1000
	dy := got.Y - 2000
	dist2 := dx*dx + dy*dy
	gate := tr.Config.gateMm(&got)
	if dist2 > gate*gate {
		t.Fatalf("displacement from spawn point exceeds gate: dist2=%f gate2=%f", dist2, gate*gate)
	}
}

func TestOutputOnlyConfirmedAndOccluded(t *testing.T) {
	tr := New(DefaultConfig())
	for _, frame := range tr.slots {
		if frame.Lifecycle != Retired {
			t.Fatalf("expected all slots retired at init, got %v", frame.Lifecycle)
		}
	}

	f := tr.Update([]Detection{{X: 0, Y: 0, Valid: true}}, 0)
	for _, tk := range f.Tracks {
		if tk.Lifecycle != Confirmed && tk.Lifecycle != Occluded {
			t.Fatalf("unexpected lifecycle in output: %v", tk.Lifecycle)
		}
		if tk.ID == 0 {
			t.Fatal("output track must have non-zero id")
		}
	}
}

func TestAtMostThreeNonRetiredTracks(t *testing.T) {
	tr := New(DefaultConfig())
	dets := []Detection{
		{X: 0, Y: 100, Valid: true},
		{X: 3000, Y: 100, Valid: true},
		{X: -3000, Y: 100, Valid: true},
		{X: 5000, Y: 5000, Valid: true}, // should be dropped, no free slot
	}
	tr.Update(dets, 0)

	nonRetired := 0
	for _, s := range tr.slots {
		if s.Lifecycle != Retired {
			nonRetired++
		}
	}
	if nonRetired != MaxTracks {
		t.Fatalf("nonRetired = %d, want %d", nonRetired, MaxTracks)
	}
}

func TestTentativeDropsAfterThreeMisses(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Update([]Detection{{X: 0, Y: 0, Valid: true}}, 0) // spawn tentative

	for i := 1; i <= 3; i++ {
		tr.Update(nil, int64(i*30))
	}

	for _, s := range tr.slots {
		if s.Lifecycle != Retired {
			t.Fatalf("tentative track should have retired after %d misses, lifecycle=%v", tr.Config.TentativeDrop, s.Lifecycle)
		}
	}
}

func TestConfirmedOccludesThenRetiresAfterTimeout(t *testing.T) {
	cfg := DefaultConfig()
	tr := New(cfg)
	det := []Detection{{X: 0, Y: 0, Valid: true}}
	tr.Update(det, 0)
	tr.Update(det, 30) // confirmed

	f := tr.Update(nil, 60) // first miss -> occluded, still emitted
	if len(f.Tracks) != 1 || f.Tracks[0].Lifecycle != Occluded {
		t.Fatalf("expected one occluded track after first miss, got %+v", f.Tracks)
	}

	for i := 0; i < cfg.OcclusionTimeoutFrames; i++ {
		tr.Update(nil, int64(90+i*30))
	}

	for _, s := range tr.slots {
		if s.Lifecycle != Retired {
			t.Fatalf("occluded track should retire after %d total misses", cfg.OcclusionTimeoutFrames)
		}
	}
}

func TestGateBoundaryAdmitsExactlyAtDistance(t *testing.T) {
	cfg := DefaultConfig()
	tr := New(cfg)
	tr.Update([]Detection{{X: 0, Y: 0, Valid: true}}, 0)

	gate := cfg.BaseGateMm // zero speed track -> gate == BaseGateMm
	det := []Detection{{X: gate, Y: 0, Valid: true}}
	f := tr.Update(det, 30)
	if len(f.Tracks) != 1 {
		t.Fatalf("detection exactly at gate distance should be admitted, got %d tracks", len(f.Tracks))
	}
}
