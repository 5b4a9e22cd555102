package radaringest

import (
	"context"
	"time"

	"testing"

	"github.com/opticworks/rs-1/internal/radarparse"
	"github.com/opticworks/rs-1/internal/timebase"
)

func presenceFrameBytes(state radarparse.PresenceState, movingEnergy, stationaryEnergy uint8) []byte {
	buf := make([]byte, 39)
	copy(buf[0:4], []byte{0xF4, 0xF3, 0xF2, 0xF1})
	buf[4], buf[5] = 29, 0 // declared length
	buf[6], buf[7] = 0x01, 0xAA
	buf[8] = byte(state)
	buf[9], buf[10] = 50, 0 // moving distance
	buf[11] = movingEnergy
	buf[12], buf[13] = 80, 0 // stationary distance
	buf[14] = stationaryEnergy
	buf[15], buf[16] = 50, 0 // detection distance
	for i := 0; i < 8; i++ {
		buf[17+i] = 20
		buf[25+i] = 20
	}
	buf[33] = 0x55
	copy(buf[35:39], []byte{0xF8, 0xF7, 0xF6, 0xF5})
	return buf
}

func TestPresenceIngestAppliesEnergyFloor(t *testing.T) {
	port := &fakePort{data: presenceFrameBytes(radarparse.PresenceBoth, 5, 50)} // moving energy below floor
	clock := timebase.NewClock(func() time.Time { return time.Unix(0, 0) })
	pi := NewPresenceIngest(port, clock, DefaultConfig())

	var got radarparse.PresenceFrame
	pi.OnPresence = func(frame radarparse.PresenceFrame) { got = frame }

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	pi.Run(ctx)

	if got.State&radarparse.PresenceMoving != 0 {
		t.Fatal("low-energy moving sub-state should have been cleared")
	}
	if got.State&radarparse.PresenceStationary == 0 {
		t.Fatal("stationary sub-state above the floor should survive")
	}
	if pi.State() != Connected {
		t.Fatalf("state = %v, want Connected", pi.State())
	}
}
