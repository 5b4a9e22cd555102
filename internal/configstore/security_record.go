package configstore

import "fmt"

const (
	apiPasswordMaxLen  = 33
	encryptionKeyLen   = 32
	pairingTokenLen    = 16
)

// SecurityRecord holds the device's local security secrets. EncryptionKey
// and PairingToken are wrapped with AES-128-ECB at rest; APIPassword is
// stored in the clear (it is itself a low-entropy legacy credential the
// original firmware never encrypted, and this port preserves that).
type SecurityRecord struct {
	APIPassword       string
	EncryptionKey     [encryptionKeyLen]byte
	EncryptionEnabled bool
	PairingToken      [pairingTokenLen]byte
}

// EncodeSecurityRecord serializes a SecurityRecord, wrapping the sensitive
// fields with key before writing them to the returned buffer.
func EncodeSecurityRecord(s SecurityRecord, key [16]byte) ([]byte, error) {
	wrappedKey, err := wrapECB(s.EncryptionKey[:], key)
	if err != nil {
		return nil, fmt.Errorf("configstore: wrap encryption key: %w", err)
	}
	wrappedToken, err := wrapECB(s.PairingToken[:], key)
	if err != nil {
		return nil, fmt.Errorf("configstore: wrap pairing token: %w", err)
	}

	buf := make([]byte, apiPasswordMaxLen+len(wrappedKey)+1+len(wrappedToken))
	putFixedString(buf[0:apiPasswordMaxLen], s.APIPassword)
	off := apiPasswordMaxLen
	copy(buf[off:off+len(wrappedKey)], wrappedKey)
	off += len(wrappedKey)
	if s.EncryptionEnabled {
		buf[off] = 1
	}
	off++
	copy(buf[off:off+len(wrappedToken)], wrappedToken)
	return buf, nil
}

// DecodeSecurityRecord reverses EncodeSecurityRecord, unwrapping the
// sensitive fields with key.
func DecodeSecurityRecord(buf []byte, key [16]byte) (SecurityRecord, error) {
	wantLen := apiPasswordMaxLen + encryptionKeyLen + 1 + pairingTokenLen
	if len(buf) != wantLen {
		return SecurityRecord{}, ErrRecordLength
	}

	apiPassword := getFixedString(buf[0:apiPasswordMaxLen])
	off := apiPasswordMaxLen

	wrappedKey := buf[off : off+encryptionKeyLen]
	off += encryptionKeyLen
	enabled := buf[off] != 0
	off++
	wrappedToken := buf[off : off+pairingTokenLen]

	plainKey, err := unwrapECB(wrappedKey, key)
	if err != nil {
		return SecurityRecord{}, fmt.Errorf("configstore: unwrap encryption key: %w", err)
	}
	plainToken, err := unwrapECB(wrappedToken, key)
	if err != nil {
		return SecurityRecord{}, fmt.Errorf("configstore: unwrap pairing token: %w", err)
	}

	var rec SecurityRecord
	rec.APIPassword = apiPassword
	rec.EncryptionEnabled = enabled
	copy(rec.EncryptionKey[:], plainKey)
	copy(rec.PairingToken[:], plainToken)
	return rec, nil
}
