package radaringest

import "github.com/opticworks/rs-1/internal/radarparse"

// PresenceFunc receives one energy-filtered presence-radar frame.
type PresenceFunc func(frame radarparse.PresenceFrame)

// StateFunc is called whenever a sensor transitions between Connected and
// Disconnected.
type StateFunc func(sensor Sensor, state ConnState)
