package radaringest

import (
	"context"

	"github.com/opticworks/rs-1/internal/radarparse"
	"github.com/opticworks/rs-1/internal/serialmux"
	"github.com/opticworks/rs-1/internal/timebase"
)

// PresenceIngest owns the LD2410 serial port (present on both the Lite and
// Pro hardware variants) and dispatches energy-filtered presence frames to
// OnPresence. Same read-loop shape as TrackingIngest.
type PresenceIngest struct {
	port   serialmux.SerialPorter
	parser *radarparse.PresenceParser
	clock  *timebase.Clock
	cfg    Config

	OnPresence PresenceFunc
	OnState    StateFunc

	state       ConnState
	lastFrameMs int64
	Stats       Stats
}

// NewPresenceIngest creates an ingest reader over an already-open port.
func NewPresenceIngest(port serialmux.SerialPorter, clock *timebase.Clock, cfg Config) *PresenceIngest {
	return &PresenceIngest{
		port:   port,
		parser: radarparse.NewPresenceParser(),
		clock:  clock,
		cfg:    cfg,
		state:  Disconnected,
	}
}

// Run reads from the port until ctx is cancelled or the port errors.
func (pi *PresenceIngest) Run(ctx context.Context) error {
	defer pi.port.Close()
	buf := make([]byte, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := pi.port.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			pi.checkDisconnect()
			continue
		}

		pi.Stats.BytesReceived++
		frame, ok := pi.parser.Feed(buf[0], pi.clock.UptimeMillis())
		if !ok {
			continue
		}
		pi.handleFrame(frame)
	}
}

func (pi *PresenceIngest) handleFrame(frame radarparse.PresenceFrame) {
	pi.Stats.FramesReceived++
	pi.lastFrameMs = frame.TimestampMs
	pi.setState(Connected)

	pi.applyEnergyFloor(&frame)

	if pi.OnPresence != nil {
		pi.OnPresence(frame)
	}
}

// applyEnergyFloor clears a sub-state (moving/stationary) whose reported
// energy is below the configured minimum, mirroring
// radar_ingest_config_t.ld2410_min_energy.
func (pi *PresenceIngest) applyEnergyFloor(frame *radarparse.PresenceFrame) {
	minEnergy := uint8(pi.cfg.MinEnergy)
	if frame.MovingEnergy < minEnergy {
		frame.State &^= radarparse.PresenceMoving
		frame.MovingDistanceCm = 0
		frame.MovingEnergy = 0
	}
	if frame.StationaryEnergy < minEnergy {
		frame.State &^= radarparse.PresenceStationary
		frame.StationaryDistanceCm = 0
		frame.StationaryEnergy = 0
	}
}

func (pi *PresenceIngest) checkDisconnect() {
	if pi.state != Connected {
		return
	}
	now := pi.clock.UptimeMillis()
	if now-pi.lastFrameMs > pi.cfg.DisconnectTimeoutMs {
		pi.setState(Disconnected)
	}
}

func (pi *PresenceIngest) setState(s ConnState) {
	if pi.state == s {
		return
	}
	pi.state = s
	if pi.OnState != nil {
		pi.OnState(LD2410, s)
	}
}

// State returns the ingest's current connection state.
func (pi *PresenceIngest) State() ConnState {
	return pi.state
}
