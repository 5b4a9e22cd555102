package configstore

import (
	"encoding/binary"
	"fmt"

	"github.com/opticworks/rs-1/internal/zoneengine"
)

const (
	MaxZones    = zoneengine.MaxZones
	MaxVertices = zoneengine.MaxVertices

	zoneIDMaxLen   = 16
	zoneNameMaxLen = 32
)

// ZoneRecord is one zone's on-flash representation, mirroring
// zoneengine.Zone but with fixed-width string fields suitable for a
// byte-exact wire/flash encoding.
type ZoneRecord struct {
	ID          string
	Name        string
	Type        zoneengine.ZoneType
	Vertices    []zoneengine.Vertex
	Sensitivity uint8
}

// ZoneStore is the persisted, versioned collection of all zones.
type ZoneStore struct {
	Version     uint32
	UpdatedAt   uint32 // unix seconds
	Zones       []ZoneRecord
	Checksum    uint16
}

// encodeZoneRecord writes one zone record: id[16] name[32] type(u8)
// vertices[8][2]i16 vertex_count(u8) sensitivity(u8), padded/truncated to
// fixed width so every record is the same size on flash. This field order
// (vertices ahead of vertex_count) matches the on-flash config_zone_t
// layout, not just an internally-consistent encoding of our own choosing.
func encodeZoneRecord(z ZoneRecord, buf []byte) {
	putFixedString(buf[0:zoneIDMaxLen], z.ID)
	putFixedString(buf[zoneIDMaxLen:zoneIDMaxLen+zoneNameMaxLen], z.Name)
	off := zoneIDMaxLen + zoneNameMaxLen
	buf[off] = uint8(z.Type)
	off++
	for i := 0; i < MaxVertices; i++ {
		var x, y int16
		if i < len(z.Vertices) {
			x, y = int16(z.Vertices[i].X), int16(z.Vertices[i].Y)
		}
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(x))
		binary.LittleEndian.PutUint16(buf[off+2:off+4], uint16(y))
		off += 4
	}
	buf[off] = uint8(len(z.Vertices))
	off++
	buf[off] = z.Sensitivity
}

func decodeZoneRecord(buf []byte) ZoneRecord {
	id := getFixedString(buf[0:zoneIDMaxLen])
	name := getFixedString(buf[zoneIDMaxLen : zoneIDMaxLen+zoneNameMaxLen])
	off := zoneIDMaxLen + zoneNameMaxLen
	zt := zoneengine.ZoneType(buf[off])
	off++
	xy := make([]int16, 0, MaxVertices*2)
	for i := 0; i < MaxVertices; i++ {
		x := int16(binary.LittleEndian.Uint16(buf[off : off+2]))
		y := int16(binary.LittleEndian.Uint16(buf[off+2 : off+4]))
		xy = append(xy, x, y)
		off += 4
	}
	count := int(buf[off])
	off++
	sensitivity := buf[off]
	verts := make([]zoneengine.Vertex, 0, count)
	for i := 0; i < count; i++ {
		verts = append(verts, zoneengine.Vertex{X: int32(xy[2*i]), Y: int32(xy[2*i+1])})
	}
	return ZoneRecord{ID: id, Name: name, Type: zt, Vertices: verts, Sensitivity: sensitivity}
}

// zoneRecordSize is the fixed on-flash width of one ZoneRecord.
const zoneRecordSize = zoneIDMaxLen + zoneNameMaxLen + 1 + 1 + MaxVertices*4 + 1

// zoneStoreHeaderSize covers version, updated_at, and zone_count, in that
// order, ahead of the fixed-size zone records and the trailing checksum.
const zoneStoreHeaderSize = 4 + 4 + 1

// EncodeZoneStore serializes a ZoneStore to its on-flash byte layout:
// version(u32) updated_at(u32) zone_count(u8) zones[16]record checksum(u16),
// CRC16-CCITT computed over every byte preceding the checksum field.
func EncodeZoneStore(s ZoneStore) ([]byte, error) {
	if len(s.Zones) > MaxZones {
		return nil, fmt.Errorf("configstore: %d zones exceeds max %d", len(s.Zones), MaxZones)
	}
	total := zoneStoreHeaderSize + MaxZones*zoneRecordSize + 2
	buf := make([]byte, total)

	binary.LittleEndian.PutUint32(buf[0:4], s.Version)
	binary.LittleEndian.PutUint32(buf[4:8], s.UpdatedAt)
	buf[8] = uint8(len(s.Zones))

	off := zoneStoreHeaderSize
	for i := 0; i < MaxZones; i++ {
		if i < len(s.Zones) {
			encodeZoneRecord(s.Zones[i], buf[off:off+zoneRecordSize])
		}
		off += zoneRecordSize
	}

	checksum := crc16CCITT(buf[:off])
	binary.LittleEndian.PutUint16(buf[off:off+2], checksum)
	return buf, nil
}

// DecodeZoneStore parses a ZoneStore and verifies its checksum.
func DecodeZoneStore(buf []byte) (ZoneStore, error) {
	wantLen := zoneStoreHeaderSize + MaxZones*zoneRecordSize + 2
	if len(buf) != wantLen {
		return ZoneStore{}, fmt.Errorf("configstore: zone store length %d, want %d", len(buf), wantLen)
	}

	version := binary.LittleEndian.Uint32(buf[0:4])
	updatedAt := binary.LittleEndian.Uint32(buf[4:8])
	count := int(buf[8])
	if count > MaxZones {
		return ZoneStore{}, fmt.Errorf("configstore: zone_count %d exceeds max %d", count, MaxZones)
	}

	checksumOffset := wantLen - 2
	stored := binary.LittleEndian.Uint16(buf[checksumOffset:wantLen])
	computed := crc16CCITT(buf[:checksumOffset])
	if stored != computed {
		return ZoneStore{}, ErrChecksum
	}

	zones := make([]ZoneRecord, 0, count)
	off := zoneStoreHeaderSize
	for i := 0; i < count; i++ {
		zones = append(zones, decodeZoneRecord(buf[off:off+zoneRecordSize]))
		off += zoneRecordSize
	}

	return ZoneStore{Version: version, UpdatedAt: updatedAt, Zones: zones, Checksum: stored}, nil
}

func putFixedString(buf []byte, s string) {
	for i := range buf {
		buf[i] = 0
	}
	n := copy(buf, s)
	_ = n
}

func getFixedString(buf []byte) string {
	i := 0
	for i < len(buf) && buf[i] != 0 {
		i++
	}
	return string(buf[:i])
}
