// Package security implements firmware signature verification, device
// identity derivation, local password authentication, and session token
// management: the on-device trust boundary for OTA installs and the local
// API, independent of any particular transport.
package security

// Config mirrors the firmware's security_config_t tuning knobs that this
// port actually exercises; TLS/provisioning-rate-limit fields from the
// original are out of scope (see the repo's design notes).
type Config struct {
	SessionTimeoutSec int
}

// DefaultConfig returns the firmware's SECURITY_CONFIG_DEFAULT values.
func DefaultConfig() Config {
	return Config{SessionTimeoutSec: 3600}
}

// Stats mirrors security_stats_t for the subset of counters this port
// tracks.
type Stats struct {
	AuthFailures    int64
	AuthSuccesses   int64
	RollbackBlocked int64
}

// Module bundles device identity, firmware verification, password
// authentication, and session management behind one handle, the way
// main.go wires the rest of the core components together.
type Module struct {
	Identity Identity
	Verifier *Verifier
	Password *PasswordAuth
	Sessions *SessionManager
}

// New derives the device identity from mac and assembles a Module with a
// fresh, unprovisioned verifier, password slot, and session manager. The
// password slot is left unset, so no password validates until
// Password.Reset(mac) is called or a persisted SecurityRecord is loaded.
func New(mac [6]byte, cfg Config) *Module {
	sessions := NewSessionManager()
	sessions.TimeoutMs = int64(cfg.SessionTimeoutSec) * 1000

	return &Module{
		Identity: DeriveIdentity(mac),
		Verifier: NewVerifier(),
		Password: &PasswordAuth{},
		Sessions: sessions,
	}
}

// Stats reports the module's aggregate counters.
func (m *Module) Stats() Stats {
	return Stats{
		AuthFailures:    m.Password.AuthFailures,
		AuthSuccesses:   m.Password.AuthSuccesses,
		RollbackBlocked: m.Verifier.RollbackBlocked,
	}
}
