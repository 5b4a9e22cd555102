package smoother

import "testing"

func TestEnterDelayPreventsFlicker(t *testing.T) {
	s := New(DefaultConfig())
	if err := s.SetSensitivity("z1", 50); err != nil {
		t.Fatalf("SetSensitivity: %v", err)
	}
	delay := CalcEnterDelayMs(50) // 250ms

	f := s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, AvgConfidence: 60, TimestampMs: 0}}, 0)
	if f.Zones[0].Occupied {
		t.Fatal("should not be occupied before enter delay elapses")
	}

	f = s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, AvgConfidence: 60, TimestampMs: delay}}, delay)
	if !f.Zones[0].Occupied {
		t.Fatal("should be occupied once enter delay elapses")
	}
}

func TestEnteringCancelsOnRawDropout(t *testing.T) {
	s := New(DefaultConfig())
	s.SetSensitivity("z1", 50)

	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, TimestampMs: 0}}, 0)
	f := s.Process([]RawInput{{ZoneID: "z1", RawOccupied: false, TimestampMs: 30}}, 30)
	if f.Zones[0].State != Vacant {
		t.Fatalf("state = %v, want Vacant after canceled entry", f.Zones[0].State)
	}
	if s.FalseOccupancyPrevented != 1 {
		t.Fatalf("FalseOccupancyPrevented = %d, want 1", s.FalseOccupancyPrevented)
	}
}

func TestHoldBridgesShortOcclusion(t *testing.T) {
	s := New(DefaultConfig())
	s.SetSensitivity("z1", 50) // hold = 2500ms at sensitivity 50, confidence weighting off path below
	s.Config.UseConfidenceWeighting = false

	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, TimestampMs: 0}}, 0)
	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, TimestampMs: 300}}, 300) // now Occupied (delay=250ms)

	// Brief occlusion: raw drops for less than the hold time.
	f := s.Process([]RawInput{{ZoneID: "z1", RawOccupied: false, TimestampMs: 400}}, 400)
	if !f.Zones[0].Occupied {
		t.Fatal("should still report occupied while holding through a brief occlusion")
	}
	if f.Zones[0].State != Holding {
		t.Fatalf("state = %v, want Holding", f.Zones[0].State)
	}

	f = s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, TimestampMs: 500}}, 500)
	if f.Zones[0].State != Occupied {
		t.Fatalf("state = %v, want Occupied after raw presence returns", f.Zones[0].State)
	}
	if s.FalseVacancyPrevented != 1 {
		t.Fatalf("FalseVacancyPrevented = %d, want 1", s.FalseVacancyPrevented)
	}
}

func TestHoldExpiresToVacant(t *testing.T) {
	s := New(DefaultConfig())
	s.Config.UseConfidenceWeighting = false
	s.SetSensitivity("z1", 100) // hold = 0ms, enter delay = 0ms

	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, TimestampMs: 0}}, 0) // instant occupied
	f := s.Process([]RawInput{{ZoneID: "z1", RawOccupied: false, TimestampMs: 10}}, 10)
	if f.Zones[0].Occupied {
		t.Fatal("zero hold time should vacate immediately")
	}
	if f.Zones[0].State != Vacant {
		t.Fatalf("state = %v, want Vacant", f.Zones[0].State)
	}
}

func TestConfidenceWeightingExtendsHold(t *testing.T) {
	s := New(DefaultConfig())
	s.SetSensitivity("z1", 50)

	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, AvgConfidence: 90, TimestampMs: 0}}, 0)
	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, AvgConfidence: 90, TimestampMs: 300}}, 300)
	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: false, AvgConfidence: 90, TimestampMs: 310}}, 310)

	if s.HoldExtensions != 1 {
		t.Fatalf("HoldExtensions = %d, want 1", s.HoldExtensions)
	}
}

func TestProcessBinaryDrivesGlobalZone(t *testing.T) {
	s := New(DefaultConfig())
	st := s.ProcessBinary(true, 0)
	if st.ZoneID != "global" {
		t.Fatalf("ZoneID = %q, want global", st.ZoneID)
	}
}

func TestChangeCallbackFiresOnTransition(t *testing.T) {
	var calls []bool
	cfg := DefaultConfig()
	cfg.OnChange = func(zoneID string, occupied bool) { calls = append(calls, occupied) }
	s := New(cfg)
	s.SetSensitivity("z1", 100) // instant transitions

	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: true, AvgConfidence: 50, TimestampMs: 0}}, 0)
	s.Process([]RawInput{{ZoneID: "z1", RawOccupied: false, AvgConfidence: 50, TimestampMs: 10}}, 10)

	if len(calls) != 2 || calls[0] != true || calls[1] != false {
		t.Fatalf("calls = %v, want [true false]", calls)
	}
}
