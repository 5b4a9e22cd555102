package timebase

import "testing"

func TestJitterMeterTracksIntervalAndJitter(t *testing.T) {
	j := NewJitterMeter(30)

	j.FrameReceived(0)
	if j.TotalFrames != 1 {
		t.Fatalf("TotalFrames = %d, want 1", j.TotalFrames)
	}

	j.FrameReceived(30)
	if j.ActualIntervalMs != 30 {
		t.Fatalf("ActualIntervalMs = %d, want 30", j.ActualIntervalMs)
	}
	if j.MaxJitterMs != 0 {
		t.Fatalf("MaxJitterMs = %d, want 0", j.MaxJitterMs)
	}

	j.FrameReceived(42) // 12ms interval -> 18ms deviation
	if j.MaxJitterMs != 18 {
		t.Fatalf("MaxJitterMs = %d, want 18", j.MaxJitterMs)
	}
}

func TestJitterMeterCountsMissedFrames(t *testing.T) {
	j := NewJitterMeter(30)
	j.FrameReceived(0)
	// 130ms gap: floor(130/30)-1 = 3 missed frames
	j.FrameReceived(130)
	if j.MissedFrames != 3 {
		t.Fatalf("MissedFrames = %d, want 3", j.MissedFrames)
	}
}

func TestJitterMeterFrameLate(t *testing.T) {
	j := NewJitterMeter(30)
	if j.FrameLate(1000) {
		t.Fatal("FrameLate should be false with no frames received")
	}
	j.FrameReceived(0)
	if j.FrameLate(60) {
		t.Fatal("FrameLate should be false at exactly 2x interval")
	}
	if !j.FrameLate(61) {
		t.Fatal("FrameLate should be true past 2x interval")
	}
}
