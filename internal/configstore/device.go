package configstore

import "encoding/binary"

const (
	deviceNameMaxLen   = 32
	friendlyNameMaxLen = 48
)

// DeviceRecord holds the device's user-facing identity and global tuning
// knobs that aren't specific to any one zone.
type DeviceRecord struct {
	DeviceName         string
	FriendlyName       string
	DefaultSensitivity uint8
	TelemetryEnabled   bool
	StateThrottleMs    uint16
}

// DefaultDeviceRecord returns the factory-default device settings.
func DefaultDeviceRecord() DeviceRecord {
	return DeviceRecord{
		DeviceName:         "rs1",
		FriendlyName:       "RS-1 Presence Sensor",
		DefaultSensitivity: 50,
		TelemetryEnabled:   false,
		StateThrottleMs:    250,
	}
}

const deviceRecordSize = deviceNameMaxLen + friendlyNameMaxLen + 1 + 1 + 2

func EncodeDeviceRecord(d DeviceRecord) []byte {
	buf := make([]byte, deviceRecordSize)
	putFixedString(buf[0:deviceNameMaxLen], d.DeviceName)
	off := deviceNameMaxLen
	putFixedString(buf[off:off+friendlyNameMaxLen], d.FriendlyName)
	off += friendlyNameMaxLen
	buf[off] = d.DefaultSensitivity
	off++
	if d.TelemetryEnabled {
		buf[off] = 1
	}
	off++
	binary.LittleEndian.PutUint16(buf[off:off+2], d.StateThrottleMs)
	return buf
}

func DecodeDeviceRecord(buf []byte) (DeviceRecord, error) {
	if len(buf) != deviceRecordSize {
		return DeviceRecord{}, ErrRecordLength
	}
	name := getFixedString(buf[0:deviceNameMaxLen])
	off := deviceNameMaxLen
	friendly := getFixedString(buf[off : off+friendlyNameMaxLen])
	off += friendlyNameMaxLen
	sensitivity := buf[off]
	off++
	telemetry := buf[off] != 0
	off++
	throttle := binary.LittleEndian.Uint16(buf[off : off+2])
	return DeviceRecord{
		DeviceName:         name,
		FriendlyName:       friendly,
		DefaultSensitivity: sensitivity,
		TelemetryEnabled:   telemetry,
		StateThrottleMs:    throttle,
	}, nil
}
