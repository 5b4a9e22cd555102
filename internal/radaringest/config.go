// Package radaringest is the sole interface between the radar UART streams
// and the rest of the processing pipeline: it owns the serial ports, feeds
// raw bytes to the radarparse state machines, filters the decoded frames
// against configured range/speed/energy bounds, and tracks each sensor's
// connected/disconnected state.
package radaringest

// Sensor identifies which radar a frame or state change came from.
type Sensor int

const (
	LD2410 Sensor = iota // presence radar (Lite and Pro)
	LD2450               // tracking radar (Pro only)
)

func (s Sensor) String() string {
	if s == LD2450 {
		return "ld2450"
	}
	return "ld2410"
}

// ConnState is a radar's connection state, derived from frame arrival
// timing rather than any handshake the sensors don't support.
type ConnState int

const (
	Disconnected ConnState = iota
	Connected
)

// Config mirrors radar_ingest_config_t's filtering and timing fields; the
// UART/GPIO pin assignment fields don't apply to a host build driving a
// go.bug.st/serial port by device path instead.
type Config struct {
	MinRangeMm           int
	MaxRangeMm           int
	MaxSpeedCmS          int
	MinEnergy            int
	DisconnectTimeoutMs  int64
}

// DefaultConfig returns RADAR_INGEST_CONFIG_DEFAULT's filtering values.
func DefaultConfig() Config {
	return Config{
		MinRangeMm:          100,
		MaxRangeMm:          6000,
		MaxSpeedCmS:         500,
		MinEnergy:           10,
		DisconnectTimeoutMs: 3000,
	}
}

// Stats mirrors radar_stats_t for one sensor.
type Stats struct {
	FramesReceived   int64
	FramesInvalid    int64
	BytesReceived    int64
	LastFrameMs      int64
	AvgTargetsPerFrame float64
}
