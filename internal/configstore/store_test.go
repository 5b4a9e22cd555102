package configstore

import (
	"testing"

	"github.com/opticworks/rs-1/internal/zoneengine"
)

func sampleZone(id string) ZoneRecord {
	return ZoneRecord{
		ID:   id,
		Name: "Living Room",
		Type: zoneengine.Include,
		Vertices: []zoneengine.Vertex{
			{X: -1000, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 2000}, {X: -1000, Y: 2000},
		},
		Sensitivity: 50,
	}
}

func TestZoneStoreEncodeDecodeRoundTrip(t *testing.T) {
	store := ZoneStore{Version: 3, UpdatedAt: 1000, Zones: []ZoneRecord{sampleZone("z1")}}
	encoded, err := EncodeZoneStore(store)
	if err != nil {
		t.Fatalf("EncodeZoneStore: %v", err)
	}
	decoded, err := DecodeZoneStore(encoded)
	if err != nil {
		t.Fatalf("DecodeZoneStore: %v", err)
	}
	if decoded.Version != 3 || len(decoded.Zones) != 1 || decoded.Zones[0].ID != "z1" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestDecodeZoneStoreRejectsBadChecksum(t *testing.T) {
	store := ZoneStore{Version: 1, Zones: []ZoneRecord{sampleZone("z1")}}
	encoded, _ := EncodeZoneStore(store)
	encoded[len(encoded)-1] ^= 0xFF // corrupt checksum byte
	if _, err := DecodeZoneStore(encoded); err != ErrChecksum {
		t.Fatalf("err = %v, want ErrChecksum", err)
	}
}

func TestSetZonesThenGetZonesRoundTrip(t *testing.T) {
	s := New(NewMemBackend(), []byte{1, 2, 3, 4, 5, 6})
	if err := s.SetZones([]ZoneRecord{sampleZone("z1")}); err != nil {
		t.Fatalf("SetZones: %v", err)
	}

	got, err := s.GetZones()
	if err != nil {
		t.Fatalf("GetZones: %v", err)
	}
	if got.Version != 1 || len(got.Zones) != 1 {
		t.Fatalf("got = %+v", got)
	}

	if err := s.SetZones([]ZoneRecord{sampleZone("z1"), sampleZone("z2")}); err != nil {
		t.Fatalf("second SetZones: %v", err)
	}
	got, _ = s.GetZones()
	if got.Version != 2 {
		t.Fatalf("version = %d, want 2", got.Version)
	}
}

func TestSetZonesRejectsInvalidZone(t *testing.T) {
	s := New(NewMemBackend(), nil)
	bad := sampleZone("z1")
	bad.Vertices = bad.Vertices[:2] // too few vertices
	if err := s.SetZones([]ZoneRecord{bad}); err == nil {
		t.Fatal("expected validation error")
	}
	if s.Stats().ValidationFailures != 1 {
		t.Fatalf("ValidationFailures = %d, want 1", s.Stats().ValidationFailures)
	}
}

func TestRollbackRestoresPreviousVersion(t *testing.T) {
	s := New(NewMemBackend(), nil)
	s.SetZones([]ZoneRecord{sampleZone("a")})
	s.SetZones([]ZoneRecord{sampleZone("b")})

	if !s.HasZoneRollback() {
		t.Fatal("expected rollback to be available after two writes")
	}
	if err := s.RollbackZones(); err != nil {
		t.Fatalf("RollbackZones: %v", err)
	}
	got, _ := s.GetZones()
	if len(got.Zones) != 1 || got.Zones[0].ID != "a" {
		t.Fatalf("got = %+v, want zone 'a' restored", got)
	}
}

func TestRollbackUnavailableBeforeAnyWrite(t *testing.T) {
	s := New(NewMemBackend(), nil)
	if err := s.RollbackZones(); err != ErrRollbackUnavailable {
		t.Fatalf("err = %v, want ErrRollbackUnavailable", err)
	}
}

// TestInitDiscardsStaleShadowKey simulates a power loss that leaves the
// shadow key (zones_new) written but never erased — i.e. the crash happened
// after the shadow write and before the primary was overwritten. Init must
// discard the stale shadow and leave the already-committed primary untouched.
func TestInitDiscardsStaleShadowKey(t *testing.T) {
	backend := NewMemBackend()
	s := New(backend, nil)
	s.SetZones([]ZoneRecord{sampleZone("a")})

	// Simulate the interrupted second write: shadow written, primary
	// not yet overwritten, and the shadow never erased.
	store := ZoneStore{Version: 2, Zones: []ZoneRecord{sampleZone("b")}}
	encoded, _ := EncodeZoneStore(store)
	backend.Write(keyZonesNew, encoded)

	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if backend.Exists(keyZonesNew) {
		t.Fatal("stale shadow key should have been discarded")
	}

	got, _ := s.GetZones()
	if len(got.Zones) != 1 || got.Zones[0].ID != "a" {
		t.Fatalf("primary zone map should be unaffected by discarded shadow, got %+v", got)
	}
}

func TestInitRecoversFromCorruptedPrimaryViaRollback(t *testing.T) {
	backend := NewMemBackend()
	s := New(backend, nil)
	s.SetZones([]ZoneRecord{sampleZone("a")})
	s.SetZones([]ZoneRecord{sampleZone("b")})

	raw, _ := backend.Read(keyZones)
	raw[0] ^= 0xFF // corrupt the primary in place
	backend.Write(keyZones, raw)

	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	got, err := s.GetZones()
	if err != nil {
		t.Fatalf("GetZones after recovery: %v", err)
	}
	if len(got.Zones) != 1 || got.Zones[0].ID != "a" {
		t.Fatalf("expected rollback to zone 'a', got %+v", got)
	}
}

func TestSecurityRecordRoundTripsWrapped(t *testing.T) {
	s := New(NewMemBackend(), []byte{0xDE, 0xAD, 0xBE, 0xEF})
	rec := SecurityRecord{APIPassword: "hunter2", EncryptionEnabled: true}
	for i := range rec.EncryptionKey {
		rec.EncryptionKey[i] = byte(i)
	}
	for i := range rec.PairingToken {
		rec.PairingToken[i] = byte(255 - i)
	}

	if err := s.SetSecurity(rec); err != nil {
		t.Fatalf("SetSecurity: %v", err)
	}
	got, err := s.GetSecurity()
	if err != nil {
		t.Fatalf("GetSecurity: %v", err)
	}
	if got.APIPassword != rec.APIPassword || got.EncryptionKey != rec.EncryptionKey || got.PairingToken != rec.PairingToken {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestDeviceRecordRoundTrip(t *testing.T) {
	s := New(NewMemBackend(), nil)
	d := DefaultDeviceRecord()
	d.FriendlyName = "Hallway Sensor"
	if err := s.SetDevice(d); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}
	got, err := s.GetDevice()
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.FriendlyName != "Hallway Sensor" {
		t.Fatalf("FriendlyName = %q", got.FriendlyName)
	}
}
