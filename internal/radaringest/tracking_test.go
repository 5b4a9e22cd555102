package radaringest

import (
	"context"
	"io"
	"sync"
	"time"

	"testing"

	"github.com/opticworks/rs-1/internal/timebase"
	"github.com/opticworks/rs-1/internal/tracker"
)

// fakePort is a minimal serialmux.SerialPorter backed by an in-memory byte
// buffer, grounded on the teacher's serialmux.MockSerialPort.
type fakePort struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, io.EOF
	}
	if len(f.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) { return len(p), nil }

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func trackingFrameBytes(x, y, speed int16) []byte {
	buf := make([]byte, 32)
	copy(buf[0:4], []byte{0xAA, 0xFF, 0x03, 0x00})
	putLE16 := func(off int, v int16) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
	}
	putLE16(4, x)
	putLE16(6, y)
	putLE16(8, speed)
	putLE16(10, 100) // resolution
	// targets 2 and 3 left as invalid sentinel (0x8000)
	putLE16(12, -32768)
	putLE16(20, -32768)
	var sum uint16
	for i := 4; i < 28; i++ {
		sum += uint16(buf[i])
	}
	buf[28] = byte(sum)
	buf[29] = byte(sum >> 8)
	copy(buf[30:32], []byte{0x55, 0xCC})
	return buf
}

func TestTrackingIngestDispatchesFilteredDetections(t *testing.T) {
	port := &fakePort{data: trackingFrameBytes(500, 2000, 10)}
	clock := timebase.NewClock(func() time.Time { return time.Unix(0, 0) })
	ti := NewTrackingIngest(port, clock, DefaultConfig())

	var got []tracker.Detection
	ti.OnDetections = func(dets []tracker.Detection, nowMs int64) {
		got = append(got, dets...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ti.Run(ctx) }()

	deadline := time.After(time.Second)
	for len(got) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for a detection")
		default:
		}
	}
	cancel()
	<-done

	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[0].X != 500 || got[0].Y != 2000 {
		t.Fatalf("got = %+v", got[0])
	}
	if ti.State() != Connected {
		t.Fatalf("state = %v, want Connected", ti.State())
	}
}

func TestTrackingIngestFiltersOutOfRangeTarget(t *testing.T) {
	port := &fakePort{data: trackingFrameBytes(500, 50, 10)} // y below MinRangeMm
	clock := timebase.NewClock(func() time.Time { return time.Unix(0, 0) })
	ti := NewTrackingIngest(port, clock, DefaultConfig())

	var detCount int
	ti.OnDetections = func(dets []tracker.Detection, nowMs int64) {
		detCount += len(dets)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	ti.Run(ctx)

	if detCount != 0 {
		t.Fatalf("detCount = %d, want 0 (out-of-range target filtered)", detCount)
	}
}
