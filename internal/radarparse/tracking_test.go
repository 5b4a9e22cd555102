package radarparse

import "testing"

func feedAll(p *TrackingParser, data []byte, nowMs int64) (TrackingFrame, bool) {
	var frame TrackingFrame
	var ok bool
	for _, b := range data {
		frame, ok = p.Feed(b, nowMs)
	}
	return frame, ok
}

func TestTrackingParserOneTargetFrame(t *testing.T) {
	data := []byte{
		0xAA, 0xFF, 0x03, 0x00,
		0xE8, 0x03, 0xD0, 0x07, 0x32, 0x00, 0x64, 0x00, // target 0: x=1000,y=2000,speed=50,res=100
		0x00, 0x80, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, // target 1: invalid
		0x00, 0x80, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, // target 2: invalid
		0x00, 0x00, // checksum = 0 (accepted)
		0x55, 0xCC,
	}

	p := NewTrackingParser()
	frame, ok := feedAll(p, data, 1000)
	if !ok {
		t.Fatal("expected a completed frame")
	}
	if frame.TargetCount != 1 {
		t.Fatalf("TargetCount = %d, want 1", frame.TargetCount)
	}
	got := frame.Targets[0]
	if !got.Valid || got.XMm != 1000 || got.YMm != 2000 || got.SpeedCmS != 50 || got.ResolutionMm != 100 {
		t.Fatalf("target 0 = %+v, want x=1000 y=2000 speed=50 res=100 valid=true", got)
	}
	if frame.Targets[1].Valid || frame.Targets[2].Valid {
		t.Fatalf("targets 1 and 2 should be invalid, got %+v / %+v", frame.Targets[1], frame.Targets[2])
	}
	if p.FramesParsed != 1 || p.FramesInvalid != 0 {
		t.Fatalf("FramesParsed=%d FramesInvalid=%d, want 1/0", p.FramesParsed, p.FramesInvalid)
	}
}

func TestTrackingParserRejectsBadChecksum(t *testing.T) {
	data := []byte{
		0xAA, 0xFF, 0x03, 0x00,
		0xE8, 0x03, 0xD0, 0x07, 0x32, 0x00, 0x64, 0x00,
		0x00, 0x80, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x80, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00,
		0xFF, 0xFF, // wrong checksum, not 0x0000
		0x55, 0xCC,
	}
	p := NewTrackingParser()
	_, ok := feedAll(p, data, 0)
	if ok {
		t.Fatal("expected frame to be rejected on checksum mismatch")
	}
	if p.FramesInvalid != 1 {
		t.Fatalf("FramesInvalid = %d, want 1", p.FramesInvalid)
	}
}

func TestTrackingParserResyncsAfterGarbage(t *testing.T) {
	p := NewTrackingParser()
	// Garbage, then a valid frame.
	garbage := []byte{0x01, 0x02, 0xAA, 0x03}
	for _, b := range garbage {
		p.Feed(b, 0)
	}

	data := []byte{
		0xAA, 0xFF, 0x03, 0x00,
		0xE8, 0x03, 0xD0, 0x07, 0x32, 0x00, 0x64, 0x00,
		0x00, 0x80, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x80, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
		0x55, 0xCC,
	}
	frame, ok := feedAll(p, data, 0)
	if !ok {
		t.Fatal("expected parser to resync and decode the following valid frame")
	}
	if frame.TargetCount != 1 {
		t.Fatalf("TargetCount = %d, want 1", frame.TargetCount)
	}
}

func TestSignalQualityDerivation(t *testing.T) {
	cases := []struct {
		res  uint16
		want int
	}{
		{100, 100},
		{1000, 0},
		{550, 50},
	}
	for _, c := range cases {
		if got := signalQuality(c.res); got != c.want {
			t.Errorf("signalQuality(%d) = %d, want %d", c.res, got, c.want)
		}
	}
}
