package ota

import "encoding/json"

// parseManifestJSON decodes an OTA trigger payload, grounded on
// internal/config/tuning.go's plain encoding/json style (no custom
// unmarshaler) rather than the original's hand-rolled JSON scanning —
// the original's parse_manifest only exists because the firmware has no
// JSON library; this port has one and should use it.
func parseManifestJSON(payload []byte, m *Manifest) error {
	if err := json.Unmarshal(payload, m); err != nil {
		return errInvalidManifest
	}
	if m.Version == 0 || m.URL == "" || m.SHA256Hex == "" {
		return errInvalidManifest
	}
	return nil
}
