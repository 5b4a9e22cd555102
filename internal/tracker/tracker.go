package tracker

import "math"

// Tracker manages a fixed bank of at most MaxTracks simultaneous tracks.
type Tracker struct {
	Config Config

	slots  [MaxTracks]Track
	nextID uint8 // wraps 1..255, skipping 0

	FilterResets int
	frameSeq     int64
}

// New creates a Tracker with the given configuration. All slots start
// empty (ID 0, Lifecycle Retired).
func New(cfg Config) *Tracker {
	t := &Tracker{Config: cfg, nextID: 1}
	for i := range t.slots {
		t.slots[i] = Track{ID: 0, Lifecycle: Retired}
	}
	return t
}

// Update runs one predict -> associate -> update -> spawn -> retire -> emit
// cycle and returns the frame of Confirmed/Occluded tracks.
func (t *Tracker) Update(detections []Detection, nowMs int64) TrackFrame {
	t.frameSeq++
	dt := t.Config.DtSeconds

	// Step 1: predict every non-Retired track.
	for i := range t.slots {
		if t.slots[i].Lifecycle != Retired {
			t.Config.predict(&t.slots[i], dt)
		}
	}

	// Step 2: gated nearest-neighbor association.
	assignedTrack := make([]int, len(detections)) // slot index + 1, 0 = unassigned
	matched := make([]bool, MaxTracks)
	t.associate(detections, assignedTrack, matched)

	// Step 3: update matched tracks and advance lifecycle on hits.
	for di, slotPlusOne := range assignedTrack {
		if slotPlusOne == 0 {
			continue
		}
		slot := slotPlusOne - 1
		tr := &t.slots[slot]

		if t.Config.update(tr, detections[di]) {
			t.FilterResets++
		}

		tr.ConsecutiveHits++
		tr.ConsecutiveMisses = 0
		tr.Confidence = minInt(100, tr.Confidence+5)
		tr.LastSeenMs = nowMs

		switch tr.Lifecycle {
		case Tentative:
			if tr.ConsecutiveHits >= t.Config.ConfirmThreshold {
				tr.Lifecycle = Confirmed
			}
		case Occluded:
			tr.Lifecycle = Confirmed
		}
	}

	// Step 4: unmatched tracks accrue misses and may retire.
	for i := range t.slots {
		if matched[i] || t.slots[i].Lifecycle == Retired {
			continue
		}
		tr := &t.slots[i]
		tr.ConsecutiveMisses++
		tr.ConsecutiveHits = 0
		tr.Confidence = maxInt(0, tr.Confidence-10)

		switch tr.Lifecycle {
		case Tentative:
			if tr.ConsecutiveMisses >= t.Config.TentativeDrop {
				t.retire(i)
			}
		case Confirmed:
			tr.Lifecycle = Occluded
		case Occluded:
			if tr.ConsecutiveMisses >= t.Config.OcclusionTimeoutFrames {
				t.retire(i)
			}
		}
	}

	// Step 5: spawn Tentative tracks for unassigned detections.
	for di, slotPlusOne := range assignedTrack {
		if slotPlusOne != 0 {
			continue
		}
		t.spawn(detections[di], nowMs)
	}

	return t.emit(nowMs)
}

// associate builds a Euclidean-distance cost matrix gated by each track's
// speed-scaled radius, then greedily extracts the minimum-cost unassigned
// pair until none remain within gate. Ties break on lower track index, then
// lower detection index (stable iteration order achieves this).
func (t *Tracker) associate(detections []Detection, assignedTrack []int, matched []bool) {
	type cell struct {
		slot, det int
		dist2     float64
	}

	var candidates []cell
	for s := range t.slots {
		if t.slots[s].Lifecycle == Retired {
			continue
		}
		gate := t.Config.gateMm(&t.slots[s])
		gate2 := gate * gate
		for di, d := range detections {
			if !d.Valid {
				continue
			}
			dist2 := gateDistanceSquared(&t.slots[s], d.X, d.Y)
			if dist2 <= gate2 {
				candidates = append(candidates, cell{slot: s, det: di, dist2: dist2})
			}
		}
	}

	detUsed := make([]bool, len(detections))

	for {
		best := -1
		bestDist := math.Inf(1)
		for i, c := range candidates {
			if matched[c.slot] || detUsed[c.det] {
				continue
			}
			if c.dist2 < bestDist ||
				(c.dist2 == bestDist && best >= 0 && (c.slot < candidates[best].slot ||
					(c.slot == candidates[best].slot && c.det < candidates[best].det))) {
				bestDist = c.dist2
				best = i
			}
		}
		if best < 0 {
			return
		}
		c := candidates[best]
		matched[c.slot] = true
		detUsed[c.det] = true
		assignedTrack[c.det] = c.slot + 1
	}
}

// spawn creates a Tentative track in the first empty/Retired slot. If no
// slot is free the detection is dropped.
func (t *Tracker) spawn(d Detection, nowMs int64) {
	for i := range t.slots {
		if t.slots[i].Lifecycle == Retired {
			id := t.allocID()
			t.slots[i] = Track{
				ID:          id,
				Lifecycle:   Tentative,
				X:           d.X,
				Y:           d.Y,
				VX:          0,
				VY:          0,
				P:           initialCovariance(),
				ConsecutiveHits: 1,
				FirstSeenMs: nowMs,
				LastSeenMs:  nowMs,
				Confidence:  50,
			}
			return
		}
	}
}

// retire clears a slot back to id-0/Retired.
func (t *Tracker) retire(i int) {
	t.slots[i] = Track{ID: 0, Lifecycle: Retired}
}

// allocID returns the next monotonic id in 1..255, wrapping past 0.
func (t *Tracker) allocID() uint8 {
	id := t.nextID
	if t.nextID == 255 {
		t.nextID = 1
	} else {
		t.nextID++
	}
	return id
}

// emit builds the per-frame confidence score (spec §4.6) and returns only
// Confirmed/Occluded tracks.
func (t *Tracker) emit(nowMs int64) TrackFrame {
	frame := TrackFrame{TimestampMs: nowMs, FrameSeq: t.frameSeq}
	for i := range t.slots {
		tr := t.slots[i]
		if tr.Lifecycle != Confirmed && tr.Lifecycle != Occluded {
			continue
		}
		tr.Confidence = outputScore(&tr, nowMs)
		frame.Tracks = append(frame.Tracks, tr)
	}
	frame.TrackCount = len(frame.Tracks)
	return frame
}

// outputScore computes spec §4.6's per-frame confidence score, clamped to
// [0,100]: 50 + min(30, hits*5) - min(40, misses*8) + min(20, age_s*2).
func outputScore(tr *Track, nowMs int64) int {
	ageSeconds := float64(nowMs-tr.FirstSeenMs) / 1000.0
	score := 50 + minInt(30, tr.ConsecutiveHits*5) - minInt(40, tr.ConsecutiveMisses*8) + minInt(20, int(ageSeconds*2))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
