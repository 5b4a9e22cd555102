package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"math/big"
)

// Signature block field widths (firmware_signature_block_t).
const (
	HashLen      = 32
	SignatureLen = 64
	PublicKeyLen = 64

	SignatureBlockSize = 4 + 4 + HashLen + SignatureLen + PublicKeyLen + 4 + 4 + 32 + HashLen // 240
)

var fwSignatureMagic = [4]byte{'O', 'P', 'F', 'W'}

// SignatureBlock is the trailer appended to every signed firmware image.
type SignatureBlock struct {
	Magic          [4]byte
	FormatVersion  uint32
	FWHash         [HashLen]byte
	Signature      [SignatureLen]byte // r || s, big-endian, 32 bytes each
	PublicKey      [PublicKeyLen]byte // X || Y, big-endian, 32 bytes each
	FWVersion      uint32
	BuildTimestamp uint32
	Reserved       [32]byte
	BlockHash      [HashLen]byte
}

// ParseSignatureBlock reads the trailing SignatureBlockSize bytes of buf as
// a SignatureBlock. It does not validate the magic or any cryptographic
// field; call Verify for that.
func ParseSignatureBlock(buf []byte) (SignatureBlock, error) {
	if len(buf) < SignatureBlockSize {
		return SignatureBlock{}, ErrShortFirmware
	}
	b := buf[len(buf)-SignatureBlockSize:]

	var sb SignatureBlock
	off := 0
	copy(sb.Magic[:], b[off:off+4])
	off += 4
	sb.FormatVersion = beUint32(b[off : off+4])
	off += 4
	copy(sb.FWHash[:], b[off:off+HashLen])
	off += HashLen
	copy(sb.Signature[:], b[off:off+SignatureLen])
	off += SignatureLen
	copy(sb.PublicKey[:], b[off:off+PublicKeyLen])
	off += PublicKeyLen
	sb.FWVersion = beUint32(b[off : off+4])
	off += 4
	sb.BuildTimestamp = beUint32(b[off : off+4])
	off += 4
	copy(sb.Reserved[:], b[off:off+32])
	off += 32
	copy(sb.BlockHash[:], b[off:off+HashLen])

	return sb, nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// TrustedKey is one entry in the device's trusted-signer list, with an
// optional validity window (unix seconds; zero means unbounded).
type TrustedKey struct {
	PublicKey [PublicKeyLen]byte
	Revoked   bool
	ValidFrom uint32
	ValidTo   uint32
}

// Verifier checks firmware images against a trusted-key list and an
// anti-rollback minimum version, mirroring security_verify_firmware.
type Verifier struct {
	trustedKeys []TrustedKey
	minVersion  uint32

	Now func() uint32 // unix seconds; overridable in tests

	RollbackBlocked int64
}

// NewVerifier creates a Verifier with no trusted keys configured. With no
// keys configured, IsTrusted accepts any public key — matching the
// firmware's unprovisioned-development behavior — until AddTrustedKey is
// called at least once.
func NewVerifier() *Verifier {
	return &Verifier{Now: func() uint32 { return 0 }}
}

// AddTrustedKey registers a signer's public key.
func (v *Verifier) AddTrustedKey(k TrustedKey) {
	v.trustedKeys = append(v.trustedKeys, k)
}

// SetMinVersion sets the anti-rollback floor: firmware with FWVersion below
// this is rejected regardless of a valid signature.
func (v *Verifier) SetMinVersion(minVersion uint32) {
	v.minVersion = minVersion
}

// MinVersion returns the current anti-rollback floor.
func (v *Verifier) MinVersion() uint32 {
	return v.minVersion
}

// IsTrusted reports whether publicKey matches a non-revoked trusted key
// whose validity window (if any) covers the current time.
func (v *Verifier) IsTrusted(publicKey [PublicKeyLen]byte) bool {
	if len(v.trustedKeys) == 0 {
		return true
	}
	now := v.Now()
	for _, k := range v.trustedKeys {
		if k.Revoked || k.PublicKey != publicKey {
			continue
		}
		if now > 0 && (now < k.ValidFrom || (k.ValidTo > 0 && now > k.ValidTo)) {
			continue
		}
		return true
	}
	return false
}

// Verify checks a complete firmware image: magic, trusted key, content
// hash, ECDSA-P256 signature over the hash, and the anti-rollback floor, in
// that order (matching security_verify_firmware's short-circuit sequence).
func (v *Verifier) Verify(fwData []byte) (SignatureBlock, error) {
	if len(fwData) < SignatureBlockSize {
		return SignatureBlock{}, ErrShortFirmware
	}
	sb, err := ParseSignatureBlock(fwData)
	if err != nil {
		return SignatureBlock{}, err
	}

	if sb.Magic != fwSignatureMagic {
		return sb, ErrBadMagic
	}
	if !v.IsTrusted(sb.PublicKey) {
		return sb, ErrNotTrusted
	}

	content := fwData[:len(fwData)-SignatureBlockSize]
	computed := sha256.Sum256(content)
	if computed != sb.FWHash {
		return sb, ErrHashMismatch
	}

	pub, err := decodePublicKey(sb.PublicKey)
	if err != nil {
		return sb, ErrSignatureInvalid
	}
	r := new(big.Int).SetBytes(sb.Signature[:32])
	s := new(big.Int).SetBytes(sb.Signature[32:])
	if !ecdsa.Verify(pub, sb.FWHash[:], r, s) {
		return sb, ErrSignatureInvalid
	}

	if sb.FWVersion < v.minVersion {
		v.RollbackBlocked++
		return sb, ErrRollbackBlocked
	}

	return sb, nil
}

// decodePublicKey reconstructs an uncompressed P-256 point from its raw
// X||Y encoding (the firmware stores no 0x04 prefix since the length is
// already unambiguous at exactly 2*32 bytes).
func decodePublicKey(raw [PublicKeyLen]byte) (*ecdsa.PublicKey, error) {
	curve := elliptic.P256()
	x := new(big.Int).SetBytes(raw[:32])
	y := new(big.Int).SetBytes(raw[32:])
	if !curve.IsOnCurve(x, y) {
		return nil, ErrSignatureInvalid
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}
