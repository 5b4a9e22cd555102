package security

import (
	"crypto/rand"
	"fmt"
	"time"
)

// MaxSessions is the number of concurrent session tokens the device tracks
// (security_t.sessions[4]).
const MaxSessions = 4

const defaultSessionTimeoutMs = 3600 * 1000

type session struct {
	token     string
	createdMs int64
	valid     bool
}

// SessionManager issues and validates short-lived bearer tokens for the
// local API, evicting the oldest session when all slots are full.
type SessionManager struct {
	sessions     [MaxSessions]session
	TimeoutMs    int64
	NowMs        func() int64 // monotonic uptime in ms; overridable in tests
}

// NewSessionManager creates a manager with the firmware's default
// 1-hour session timeout.
func NewSessionManager() *SessionManager {
	start := time.Now()
	return &SessionManager{
		TimeoutMs: defaultSessionTimeoutMs,
		NowMs:     func() int64 { return time.Since(start).Milliseconds() },
	}
}

// Generate creates a new session token, evicting the least-recently-created
// session if every slot is occupied.
func (m *SessionManager) Generate() (string, error) {
	slot := -1
	for i := range m.sessions {
		if !m.sessions[i].valid {
			slot = i
			break
		}
	}
	if slot < 0 {
		oldest := int64(1<<63 - 1)
		for i := range m.sessions {
			if m.sessions[i].createdMs < oldest {
				oldest = m.sessions[i].createdMs
				slot = i
			}
		}
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("security: generate session token: %w", err)
	}
	token := hexEncode(raw)

	m.sessions[slot] = session{token: token, createdMs: m.NowMs(), valid: true}
	return token, nil
}

// Validate reports whether token names a live, unexpired session. Expired
// sessions are invalidated as a side effect of being checked.
func (m *SessionManager) Validate(token string) bool {
	now := m.NowMs()
	for i := range m.sessions {
		s := &m.sessions[i]
		if !s.valid {
			continue
		}
		if now-s.createdMs > m.TimeoutMs {
			s.valid = false
			continue
		}
		if s.token == token {
			return true
		}
	}
	return false
}

// Invalidate revokes a single session token, if present.
func (m *SessionManager) Invalidate(token string) {
	for i := range m.sessions {
		if m.sessions[i].valid && m.sessions[i].token == token {
			m.sessions[i] = session{}
			return
		}
	}
}

// InvalidateAll revokes every active session, e.g. on password change.
func (m *SessionManager) InvalidateAll() {
	for i := range m.sessions {
		m.sessions[i] = session{}
	}
}

// ActiveCount returns the number of currently valid (not-yet-expired)
// sessions.
func (m *SessionManager) ActiveCount() int {
	now := m.NowMs()
	n := 0
	for i := range m.sessions {
		if m.sessions[i].valid && now-m.sessions[i].createdMs <= m.TimeoutMs {
			n++
		}
	}
	return n
}
