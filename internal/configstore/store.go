package configstore

import (
	"fmt"

	"github.com/opticworks/rs-1/internal/zoneengine"
)

const (
	keyZones    = "zones"
	keyZonesPrev = "zones_prev"
	keyZonesNew = "zones_new"
	keyDevice   = "device"
	keySecurity = "security"
)

// Stats mirrors the firmware's config_stats_t.
type Stats struct {
	WritesTotal        int64
	Rollbacks          int64
	ValidationFailures int64
}

// Store is the top-level config persistence API: zone maps, device
// settings, and security secrets, all backed by an injectable Backend. It
// is the single owner of the atomic shadow-key write sequence that keeps
// the zone map power-loss safe.
type Store struct {
	backend Backend
	key     [16]byte // derived AES key for wrapping SecurityRecord secrets

	Now func() uint32 // unix seconds; overridable in tests

	stats Stats
}

// New creates a Store over backend. deviceMAC seeds the AES key used to
// wrap security secrets at rest.
func New(backend Backend, deviceMAC []byte) *Store {
	return &Store{
		backend: backend,
		key:     DeriveConfigKey(deviceMAC),
		Now:     func() uint32 { return 0 },
	}
}

// Init recovers from any interrupted write left over from a previous power
// cycle: a lingering shadow key means the 2-phase write never completed, and
// is discarded; a corrupted primary zone store triggers an automatic
// rollback (or, lacking one, an erase).
func (s *Store) Init() error {
	if s.backend.Exists(keyZonesNew) {
		if err := s.backend.Erase(keyZonesNew); err != nil {
			return fmt.Errorf("configstore: discard incomplete write: %w", err)
		}
		if err := s.backend.Commit(); err != nil {
			return fmt.Errorf("configstore: commit after discard: %w", err)
		}
	}

	if s.backend.Exists(keyZones) {
		raw, err := s.backend.Read(keyZones)
		if err == nil {
			if _, decErr := DecodeZoneStore(raw); decErr != nil {
				if s.HasZoneRollback() {
					_ = s.RollbackZones()
				} else {
					_ = s.backend.Erase(keyZones)
					_ = s.backend.Commit()
				}
			}
		}
	}

	return nil
}

// GetZones reads the current zone map. A never-written store reads back as
// an empty ZoneStore, not an error.
func (s *Store) GetZones() (ZoneStore, error) {
	if !s.backend.Exists(keyZones) {
		return ZoneStore{}, nil
	}
	raw, err := s.backend.Read(keyZones)
	if err != nil {
		return ZoneStore{}, err
	}
	return DecodeZoneStore(raw)
}

// GetZone looks up a single zone by ID within the current zone map.
func (s *Store) GetZone(id string) (ZoneRecord, error) {
	store, err := s.GetZones()
	if err != nil {
		return ZoneRecord{}, err
	}
	for _, z := range store.Zones {
		if z.ID == id {
			return z, nil
		}
	}
	return ZoneRecord{}, ErrNotFound
}

// ZoneVersion returns the currently stored zone map's version, or 0 if none
// has ever been written.
func (s *Store) ZoneVersion() uint32 {
	store, err := s.GetZones()
	if err != nil {
		return 0
	}
	return store.Version
}

// ValidateZoneRecord checks one zone record's structural validity (vertex
// count, self-intersection), reusing the zone engine's geometry rules so
// persisted zones and active zones are held to the same standard.
func ValidateZoneRecord(z ZoneRecord) error {
	return zoneengine.Validate(zoneengine.Zone{
		ID:       z.ID,
		Name:     z.Name,
		Type:     z.Type,
		Vertices: z.Vertices,
	})
}

// ValidateZoneStore validates every zone and rejects duplicate IDs.
func ValidateZoneStore(store ZoneStore) error {
	if len(store.Zones) > MaxZones {
		return fmt.Errorf("configstore: %d zones exceeds max %d", len(store.Zones), MaxZones)
	}
	seen := make(map[string]bool, len(store.Zones))
	for _, z := range store.Zones {
		if err := ValidateZoneRecord(z); err != nil {
			return err
		}
		if seen[z.ID] {
			return fmt.Errorf("configstore: duplicate zone id %q", z.ID)
		}
		seen[z.ID] = true
	}
	return nil
}

// SetZones performs the atomic, versioned zone map write (spec §4.2):
//  1. write the new map to the shadow key
//  2. back up the current primary to the previous-version key
//  3. copy the shadow to the primary key
//  4. erase the shadow key
//  5. commit
//
// A crash at any point before step 5's commit leaves either the old map
// (steps 1-2 incomplete) or the new map plus a stale shadow key (steps 3-4
// incomplete, cleaned up by Init on the next boot) — never a torn write.
func (s *Store) SetZones(zones []ZoneRecord) error {
	store := ZoneStore{Zones: zones}
	if err := ValidateZoneStore(store); err != nil {
		s.stats.ValidationFailures++
		return err
	}

	store.Version = s.ZoneVersion() + 1
	store.UpdatedAt = s.Now()

	encoded, err := EncodeZoneStore(store)
	if err != nil {
		return err
	}

	if err := s.backend.Write(keyZonesNew, encoded); err != nil {
		return fmt.Errorf("configstore: write shadow: %w", err)
	}

	if s.backend.Exists(keyZones) {
		if current, err := s.backend.Read(keyZones); err == nil {
			_ = s.backend.Write(keyZonesPrev, current)
		}
	}

	if err := s.backend.Write(keyZones, encoded); err != nil {
		return fmt.Errorf("configstore: write primary: %w", err)
	}

	_ = s.backend.Erase(keyZonesNew)

	if err := s.backend.Commit(); err != nil {
		return fmt.Errorf("configstore: commit: %w", err)
	}

	s.stats.WritesTotal++
	return nil
}

// HasZoneRollback reports whether a previous zone map version exists.
func (s *Store) HasZoneRollback() bool {
	return s.backend.Exists(keyZonesPrev)
}

// RollbackZones restores the zone map from the previous-version key.
func (s *Store) RollbackZones() error {
	if !s.HasZoneRollback() {
		return ErrRollbackUnavailable
	}

	raw, err := s.backend.Read(keyZonesPrev)
	if err != nil {
		return ErrRollbackUnavailable
	}

	prev, err := DecodeZoneStore(raw)
	if err != nil {
		return fmt.Errorf("configstore: rollback target is also corrupted: %w", err)
	}
	if err := ValidateZoneStore(prev); err != nil {
		return fmt.Errorf("configstore: rollback target fails validation: %w", err)
	}

	if err := s.backend.Write(keyZones, raw); err != nil {
		return fmt.Errorf("configstore: write rolled-back zones: %w", err)
	}
	_ = s.backend.Commit()

	s.stats.Rollbacks++
	return nil
}

// GetDevice reads the device settings record, or the factory defaults if
// none has ever been written.
func (s *Store) GetDevice() (DeviceRecord, error) {
	if !s.backend.Exists(keyDevice) {
		return DefaultDeviceRecord(), nil
	}
	raw, err := s.backend.Read(keyDevice)
	if err != nil {
		return DeviceRecord{}, err
	}
	return DecodeDeviceRecord(raw)
}

// SetDevice writes the device settings record.
func (s *Store) SetDevice(d DeviceRecord) error {
	if err := s.backend.Write(keyDevice, EncodeDeviceRecord(d)); err != nil {
		return err
	}
	s.stats.WritesTotal++
	return s.backend.Commit()
}

// GetSecurity reads and unwraps the security record.
func (s *Store) GetSecurity() (SecurityRecord, error) {
	if !s.backend.Exists(keySecurity) {
		return SecurityRecord{}, nil
	}
	raw, err := s.backend.Read(keySecurity)
	if err != nil {
		return SecurityRecord{}, err
	}
	return DecodeSecurityRecord(raw, s.key)
}

// SetSecurity wraps and writes the security record.
func (s *Store) SetSecurity(sec SecurityRecord) error {
	encoded, err := EncodeSecurityRecord(sec, s.key)
	if err != nil {
		return err
	}
	if err := s.backend.Write(keySecurity, encoded); err != nil {
		return err
	}
	s.stats.WritesTotal++
	return s.backend.Commit()
}

// FactoryReset erases every config domain.
func (s *Store) FactoryReset() error {
	for _, key := range []string{keyZones, keyZonesPrev, keyZonesNew, keyDevice, keySecurity} {
		_ = s.backend.Erase(key)
	}
	return s.backend.Commit()
}

// Stats returns a snapshot of the store's write/rollback/validation counters.
func (s *Store) Stats() Stats {
	return s.stats
}
