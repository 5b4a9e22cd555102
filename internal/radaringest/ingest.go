package radaringest

import (
	"context"

	"github.com/opticworks/rs-1/internal/serialmux"
	"github.com/opticworks/rs-1/internal/timebase"
)

// Module bundles the presence-radar ingest (present on every hardware
// variant) with an optional tracking-radar ingest (Pro only), mirroring
// radar_ingest_init's single ld2410_uart_num + optional ld2450_uart_num
// (-1 to disable) configuration.
type Module struct {
	Presence *PresenceIngest
	Tracking *TrackingIngest // nil on Lite hardware
}

// New assembles a Module. trackingPort is nil on Lite hardware, matching
// the firmware's ld2450_uart_num == -1 convention for "not present".
func New(presencePort serialmux.SerialPorter, trackingPort serialmux.SerialPorter, clock *timebase.Clock, cfg Config) *Module {
	m := &Module{Presence: NewPresenceIngest(presencePort, clock, cfg)}
	if trackingPort != nil {
		m.Tracking = NewTrackingIngest(trackingPort, clock, cfg)
	}
	return m
}

// HasTracking reports whether this Module has a tracking-radar ingest
// configured (radar_ingest_has_tracking).
func (m *Module) HasTracking() bool {
	return m.Tracking != nil
}

// Run starts both ingests (or just the presence one, on Lite hardware) and
// blocks until ctx is cancelled or either one errors.
func (m *Module) Run(ctx context.Context) error {
	errc := make(chan error, 2)
	go func() { errc <- m.Presence.Run(ctx) }()

	if m.Tracking != nil {
		go func() { errc <- m.Tracking.Run(ctx) }()
		if err := <-errc; err != nil {
			return err
		}
		return <-errc
	}

	return <-errc
}

// State returns the connection state for the named sensor. Querying
// LD2450 on Lite hardware (no tracking ingest configured) always reports
// Disconnected.
func (m *Module) State(sensor Sensor) ConnState {
	if sensor == LD2450 {
		if m.Tracking == nil {
			return Disconnected
		}
		return m.Tracking.State()
	}
	return m.Presence.State()
}
