package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

const passwordSaltLen = 16

// PasswordAuth holds the salted password hash used for local API
// authentication, and tracks whether it has ever been changed from the
// device's factory default.
type PasswordAuth struct {
	salt    [passwordSaltLen]byte
	hash    [32]byte
	changed bool

	AuthSuccesses int64
	AuthFailures  int64
}

// SetPassword hashes newPassword with a freshly generated salt and replaces
// the stored credential. Passwords longer than 64 bytes are truncated
// before hashing, matching the firmware's fixed-size salting buffer.
func (p *PasswordAuth) SetPassword(newPassword string) error {
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}
	if _, err := rand.Read(p.salt[:]); err != nil {
		return fmt.Errorf("security: generate password salt: %w", err)
	}
	p.hash = hashPassword(p.salt, newPassword)
	p.changed = true
	return nil
}

// Validate reports whether password matches the stored credential, using a
// constant-time comparison of the computed hash.
func (p *PasswordAuth) Validate(password string) bool {
	candidate := hashPassword(p.salt, password)
	if subtle.ConstantTimeCompare(candidate[:], p.hash[:]) == 1 {
		p.AuthSuccesses++
		return true
	}
	p.AuthFailures++
	return false
}

// Changed reports whether the password has ever been changed from its
// factory default.
func (p *PasswordAuth) Changed() bool {
	return p.changed
}

func hashPassword(salt [passwordSaltLen]byte, password string) [32]byte {
	pw := []byte(password)
	if len(pw) > 64 {
		pw = pw[:64]
	}
	salted := make([]byte, 0, passwordSaltLen+len(pw))
	salted = append(salted, salt[:]...)
	salted = append(salted, pw...)
	return sha256.Sum256(salted)
}

// DefaultPassword derives the factory default password from the last 4
// bytes of the device's MAC address, formatted as 8 uppercase hex digits —
// the same scheme printed on the unit's label.
func DefaultPassword(mac [6]byte) string {
	return fmt.Sprintf("%02X%02X%02X%02X", mac[2], mac[3], mac[4], mac[5])
}

// Reset restores the password to the device's factory default derived from
// mac, and clears the changed flag.
func (p *PasswordAuth) Reset(mac [6]byte) error {
	if err := p.SetPassword(DefaultPassword(mac)); err != nil {
		return err
	}
	p.changed = false
	return nil
}
