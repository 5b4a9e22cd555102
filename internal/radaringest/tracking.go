package radaringest

import (
	"context"

	"github.com/opticworks/rs-1/internal/radarparse"
	"github.com/opticworks/rs-1/internal/serialmux"
	"github.com/opticworks/rs-1/internal/timebase"
	"github.com/opticworks/rs-1/internal/tracker"
)

// DetectionFunc receives the filtered detections from one tracking-radar
// frame, ready to hand to tracker.Update. Called synchronously from the
// ingest goroutine.
type DetectionFunc func(dets []tracker.Detection, nowMs int64)

// TrackingIngest owns the LD2450 serial port, decodes its byte stream with
// a radarparse.TrackingParser, and dispatches range/speed-filtered
// detections to OnDetections. It mirrors the teacher's RadarPort.Monitor
// loop shape (internal/serialmux + a context-driven read loop), generalized
// from line-based scanning to a byte-at-a-time binary frame parser.
type TrackingIngest struct {
	port   serialmux.SerialPorter
	parser *radarparse.TrackingParser
	clock  *timebase.Clock
	cfg    Config

	OnDetections DetectionFunc
	OnState      StateFunc

	state       ConnState
	lastFrameMs int64
	Stats       Stats
}

// NewTrackingIngest creates an ingest reader over an already-open port.
func NewTrackingIngest(port serialmux.SerialPorter, clock *timebase.Clock, cfg Config) *TrackingIngest {
	return &TrackingIngest{
		port:   port,
		parser: radarparse.NewTrackingParser(),
		clock:  clock,
		cfg:    cfg,
		state:  Disconnected,
	}
}

// Run reads from the port until ctx is cancelled or the port returns an
// error. It is meant to run in its own goroutine.
func (ti *TrackingIngest) Run(ctx context.Context) error {
	defer ti.port.Close()
	buf := make([]byte, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := ti.port.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			ti.checkDisconnect()
			continue
		}

		ti.Stats.BytesReceived++
		frame, ok := ti.parser.Feed(buf[0], ti.clock.UptimeMillis())
		if !ok {
			continue
		}
		ti.handleFrame(frame)
	}
}

func (ti *TrackingIngest) handleFrame(frame radarparse.TrackingFrame) {
	ti.Stats.FramesReceived++
	ti.lastFrameMs = frame.TimestampMs
	ti.setState(Connected)

	dets := make([]tracker.Detection, 0, len(frame.Targets))
	for _, t := range frame.Targets {
		if !t.Valid {
			continue
		}
		if !ti.inBounds(t) {
			continue
		}
		dets = append(dets, tracker.Detection{
			X:        float64(t.XMm),
			Y:        float64(t.YMm),
			SpeedCmS: float64(t.SpeedCmS),
			Valid:    true,
		})
	}

	if ti.OnDetections != nil {
		ti.OnDetections(dets, frame.TimestampMs)
	}
}

// inBounds applies the module's range and speed filters (radar_ingest_
// config_t.min_range_mm/max_range_mm/max_speed_cm_s).
func (ti *TrackingIngest) inBounds(t radarparse.TrackingTarget) bool {
	if int(t.YMm) < ti.cfg.MinRangeMm || int(t.YMm) > ti.cfg.MaxRangeMm {
		return false
	}
	speed := int(t.SpeedCmS)
	if speed < 0 {
		speed = -speed
	}
	return speed <= ti.cfg.MaxSpeedCmS
}

// checkDisconnect marks the sensor Disconnected if no frame has arrived
// within DisconnectTimeoutMs of the last one. Called whenever a blocking
// read times out with zero bytes (the port must be configured with a read
// timeout shorter than DisconnectTimeoutMs for this to fire promptly).
func (ti *TrackingIngest) checkDisconnect() {
	if ti.state != Connected {
		return
	}
	now := ti.clock.UptimeMillis()
	if now-ti.lastFrameMs > ti.cfg.DisconnectTimeoutMs {
		ti.setState(Disconnected)
	}
}

func (ti *TrackingIngest) setState(s ConnState) {
	if ti.state == s {
		return
	}
	ti.state = s
	if ti.OnState != nil {
		ti.OnState(LD2450, s)
	}
}

// State returns the ingest's current connection state.
func (ti *TrackingIngest) State() ConnState {
	return ti.state
}
