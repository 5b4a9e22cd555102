// Command rs1d is the RS-1 presence sensor's core daemon: it owns the
// radar ingest goroutines, the tracking/zone/smoothing pipeline, the
// config store, security module, and OTA manager, and wires them
// together the way the teacher's main.go wires its serial monitor, event
// handler, and HTTP server goroutines around one cancellation context.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/opticworks/rs-1/internal/config"
	"github.com/opticworks/rs-1/internal/configstore"
	"github.com/opticworks/rs-1/internal/monitoring"
	"github.com/opticworks/rs-1/internal/ota"
	"github.com/opticworks/rs-1/internal/radaringest"
	"github.com/opticworks/rs-1/internal/radarparse"
	"github.com/opticworks/rs-1/internal/security"
	"github.com/opticworks/rs-1/internal/serialmux"
	"github.com/opticworks/rs-1/internal/smoother"
	"github.com/opticworks/rs-1/internal/timebase"
	"github.com/opticworks/rs-1/internal/tracker"
	"github.com/opticworks/rs-1/internal/zoneengine"
)

var (
	presencePort = flag.String("presence-port", "/dev/ttyUSB0", "LD2410 presence radar serial device")
	trackingPort = flag.String("tracking-port", "", "LD2450 tracking radar serial device (empty disables tracking, i.e. Lite hardware)")
	devMode      = flag.Bool("dev", false, "Run against an in-memory config backend instead of real flash")
	deviceMACHex = flag.String("mac", "", "Device MAC address, 6 bytes hex (e.g. AABBCCDDEEFF); a fixed placeholder MAC is used in -dev mode if omitted")
	tuningPath   = flag.String("tuning", "", "Path to a tuning JSON file overriding the tracker/zone/smoother/ingest/security/OTA defaults")
)

func main() {
	flag.Parse()

	mac, err := resolveDeviceMAC(*deviceMACHex, *devMode)
	if err != nil {
		log.Fatalf("failed to resolve device MAC: %v", err)
	}

	tuning := config.EmptyTuningConfig()
	if *tuningPath != "" {
		loaded, err := config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("load tuning config: %v", err)
		}
		tuning = loaded
	}

	clock := timebase.NewClock(nil)
	scheduler := timebase.NewScheduler()
	watchdog := timebase.NewWatchdog()

	var backend configstore.Backend
	if *devMode {
		backend = configstore.NewMemBackend()
	} else {
		log.Fatal("non-dev flash backend is not wired; run with -dev for now")
	}

	store := configstore.New(backend, mac[:])
	store.Now = func() uint32 { return uint32(time.Now().Unix()) }
	if err := store.Init(); err != nil {
		log.Fatalf("config store init: %v", err)
	}

	secMod := security.New(mac, tuning.ApplySecurity())
	if err := loadOrResetSecurity(store, secMod, mac); err != nil {
		log.Fatalf("security bootstrap: %v", err)
	}

	otaMgr := ota.NewManager(1, tuning.ApplyOTA())
	otaMgr.Verifier = secMod.Verifier
	otaMgr.OnEvent = func(e ota.Event, p ota.Progress) {
		monitoring.Logf("ota: event=%d status=%s error=%s", e, p.Status, p.ErrorMsg)
	}

	trk := tracker.New(tuning.ApplyTracker())

	zones, err := store.GetZones()
	if err != nil {
		log.Fatalf("load zones: %v", err)
	}
	zoneCfg := tuning.ApplyZoneEngine()
	engine := zoneengine.New(zoneCfg)
	if err := engine.LoadZones(toEngineZones(zones)); err != nil {
		log.Fatalf("load zone map into engine: %v", err)
	}
	engine.OnEvent = func(ev zoneengine.Event) {
		monitoring.Logf("zone event: type=%s zone=%s track=%d t=%d", ev.Type, ev.ZoneID, ev.TrackID, ev.TimestampMs)
	}

	device, err := store.GetDevice()
	if err != nil {
		log.Fatalf("load device record: %v", err)
	}
	smCfg := tuning.ApplySmoother()
	smCfg.DefaultSensitivity = int(device.DefaultSensitivity)
	smCfg.OnChange = func(zoneID string, occupied bool) {
		monitoring.Logf("presence change: zone=%s occupied=%v", zoneID, occupied)
	}
	sm := smoother.New(smCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingest, err := openIngest(*presencePort, *trackingPort, clock, *devMode, tuning.ApplyRadarIngest())
	if err != nil {
		log.Fatalf("open radar ports: %v", err)
	}

	if err := watchdog.RegisterSource("scheduler"); err != nil {
		log.Fatalf("register watchdog source: %v", err)
	}
	if err := watchdog.RegisterSource("radar"); err != nil {
		log.Fatalf("register watchdog source: %v", err)
	}

	ingest.Presence.OnState = func(sensor radaringest.Sensor, state radaringest.ConnState) {
		monitoring.Logf("%s connection state: %v", sensor, state)
		_ = watchdog.SetRadarDisconnected(state == radaringest.Disconnected)
	}

	var wg sync.WaitGroup

	// The radar ingest goroutines decode the UART streams and hand frames
	// to the pipeline below; on Lite hardware (no tracking port) presence
	// is smoothed directly from the LD2410's binary state.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ingest.Run(ctx); err != nil && err != context.Canceled {
			monitoring.Logf("radar ingest terminated: %v", err)
		}
	}()

	if ingest.HasTracking() {
		ingest.Tracking.OnDetections = func(dets []tracker.Detection, nowMs int64) {
			frame := trk.Update(dets, nowMs)
			zf := engine.Process(frame)
			inputs := make([]smoother.RawInput, 0, len(zf.States))
			for _, st := range zf.States {
				inputs = append(inputs, smoother.RawInput{
					ZoneID:      st.ZoneID,
					RawOccupied: st.Occupied,
					TargetCount: st.TargetCount,
					HasMoving:   st.HasMoving,
					TimestampMs: zf.TimestampMs,
				})
			}
			sm.Process(inputs, nowMs)
		}
	} else {
		ingest.Presence.OnPresence = func(frame radarparse.PresenceFrame) {
			occupied := frame.State != radarparse.PresenceNone
			sm.ProcessBinary(occupied, clock.UptimeMillis())
		}
	}

	// The cooperative scheduler drives the watchdog feed and periodic
	// housekeeping at a fixed resolution, mirroring the firmware's
	// millisecond-tick main loop.
	if err := scheduler.Register("watchdog-feed", 1000, func() {
		watchdog.Feed("scheduler")
		if !watchdog.Check() {
			monitoring.Logf("watchdog: missed feed window")
		}
	}, clock.UptimeMillis()); err != nil {
		log.Fatalf("register scheduler task: %v", err)
	}

	schedulerStop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(schedulerStop, clock, 250*time.Millisecond)
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down")
	close(schedulerStop)

	wg.Wait()
	monitoring.Logf("shutdown complete")
}

func resolveDeviceMAC(hexMAC string, dev bool) ([6]byte, error) {
	var mac [6]byte
	if hexMAC == "" {
		if !dev {
			return mac, os.ErrInvalid
		}
		copy(mac[:], []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01})
		return mac, nil
	}
	parsed, err := net.ParseMAC(formatColonMAC(hexMAC))
	if err != nil || len(parsed) != 6 {
		return mac, err
	}
	copy(mac[:], parsed)
	return mac, nil
}

func formatColonMAC(hexMAC string) string {
	if len(hexMAC) != 12 {
		return hexMAC
	}
	out := make([]byte, 0, 17)
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hexMAC[i], hexMAC[i+1])
	}
	return string(out)
}

func loadOrResetSecurity(store *configstore.Store, mod *security.Module, mac [6]byte) error {
	rec, err := store.GetSecurity()
	if err != nil {
		return err
	}
	if rec.APIPassword == "" {
		return mod.Password.Reset(mac)
	}
	return mod.Password.SetPassword(rec.APIPassword)
}

func toEngineZones(store configstore.ZoneStore) []zoneengine.Zone {
	zones := make([]zoneengine.Zone, 0, len(store.Zones))
	for _, z := range store.Zones {
		zones = append(zones, zoneengine.Zone{
			ID:          z.ID,
			Name:        z.Name,
			Type:        z.Type,
			Vertices:    z.Vertices,
			Sensitivity: int(z.Sensitivity),
		})
	}
	return zones
}

func openIngest(presencePath, trackingPath string, clock *timebase.Clock, dev bool, cfg radaringest.Config) (*radaringest.Module, error) {
	var factory serialmux.SerialPortFactory = serialmux.RealFactory{}
	var presence, tracking serialmux.SerialPorter
	var err error

	if dev {
		presence = newLoopbackPort()
		if trackingPath != "" {
			tracking = newLoopbackPort()
		}
	} else {
		presence, err = openWithTimeout(factory, presencePath, cfg.DisconnectTimeoutMs)
		if err != nil {
			return nil, err
		}
		if trackingPath != "" {
			tracking, err = openWithTimeout(factory, trackingPath, cfg.DisconnectTimeoutMs)
			if err != nil {
				return nil, err
			}
		}
	}

	return radaringest.New(presence, tracking, clock, cfg), nil
}

func openWithTimeout(factory serialmux.SerialPortFactory, path string, disconnectTimeoutMs int64) (serialmux.SerialPorter, error) {
	port, err := factory.Open(path, serialmux.DefaultSerialPortMode())
	if err != nil {
		return nil, err
	}
	if tp, ok := port.(serialmux.TimeoutSerialPorter); ok {
		_ = tp.SetReadTimeout(time.Duration(disconnectTimeoutMs/3) * time.Millisecond)
	}
	return port, nil
}

// loopbackPort is a no-hardware stand-in for -dev runs: it never produces
// a frame, returning a timed-out zero-byte read every 100ms (so the
// ingest loop's disconnect check and context cancellation both still
// run) until Close, matching the teacher's own NewMockSerialMux
// fixture-file approach of keeping -dev mode free of real hardware
// without special-casing the ingest loop.
type loopbackPort struct {
	closed chan struct{}
}

func newLoopbackPort() *loopbackPort {
	return &loopbackPort{closed: make(chan struct{})}
}

func (p *loopbackPort) Read(buf []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, io.EOF
	case <-time.After(100 * time.Millisecond):
		return 0, nil
	}
}

func (p *loopbackPort) Write(buf []byte) (int, error) {
	return len(buf), nil
}

func (p *loopbackPort) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}
