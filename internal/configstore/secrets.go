package configstore

import (
	"crypto/aes"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// deriveKey derives a 128-bit AES key from a device-unique seed (typically
// the radio MAC) via HMAC-SHA256, keeping only the first 16 bytes of the
// digest. This mirrors the firmware's HKDF-like derivation: a fixed salt
// distinguishes this key's purpose from any other key derived from the same
// device secret.
func deriveKey(seed []byte, salt string) [16]byte {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write(seed)
	sum := mac.Sum(nil)
	var key [16]byte
	copy(key[:], sum[:16])
	return key
}

// DeriveConfigKey derives the key used to wrap secrets stored in the
// SecurityRecord, from the device's radio MAC address.
func DeriveConfigKey(mac []byte) [16]byte {
	return deriveKey(mac, "rs1_config_key_v1")
}

// wrapECB encrypts plain under key using AES-128 in ECB mode, zero-padding
// the final block. ECB is adequate here: each field is a single independent
// fixed-size secret blob, not a stream, so there is no repeated-plaintext
// leakage across blocks to worry about within one field.
func wrapECB(plain []byte, key [16]byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("configstore: aes cipher: %w", err)
	}

	blocks := (len(plain) + 15) / 16
	out := make([]byte, blocks*16)
	padded := make([]byte, blocks*16)
	copy(padded, plain)

	for i := 0; i < blocks; i++ {
		off := i * 16
		block.Encrypt(out[off:off+16], padded[off:off+16])
	}
	return out, nil
}

// unwrapECB reverses wrapECB. The caller is responsible for trimming any
// trailing zero padding the original plaintext length implies.
func unwrapECB(cipher []byte, key [16]byte) ([]byte, error) {
	if len(cipher)%16 != 0 {
		return nil, fmt.Errorf("configstore: ciphertext length %d not a multiple of 16", len(cipher))
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("configstore: aes cipher: %w", err)
	}

	out := make([]byte, len(cipher))
	for off := 0; off < len(cipher); off += 16 {
		block.Decrypt(out[off:off+16], cipher[off:off+16])
	}
	return out, nil
}
