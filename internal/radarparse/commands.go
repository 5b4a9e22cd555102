package radarparse

import "encoding/binary"

// Command envelope: FD FC FB FA | len_u16_le | cmd_u16_le | data... | 04 03 02 01
// (spec §4.4.2, §6). len covers cmd_u16_le plus data.
var commandHeader = [4]byte{0xFD, 0xFC, 0xFB, 0xFA}
var commandFooter = [4]byte{0x04, 0x03, 0x02, 0x01}

const (
	cmdEnableConfig           uint16 = 0x00FF
	cmdDisableConfig          uint16 = 0x00FE
	cmdEnableEngineeringMode  uint16 = 0x0012
	cmdDisableEngineeringMode uint16 = 0x0013
	cmdSetMaxGate             uint16 = 0x0060
)

// buildCommand assembles a single command envelope around cmd and data.
func buildCommand(cmd uint16, data []byte) []byte {
	length := 2 + len(data) // cmd_u16_le + data
	buf := make([]byte, 0, 4+2+length+4)
	buf = append(buf, commandHeader[:]...)

	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, uint16(length))
	buf = append(buf, lenBytes...)

	cmdBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(cmdBytes, cmd)
	buf = append(buf, cmdBytes...)

	buf = append(buf, data...)
	buf = append(buf, commandFooter[:]...)
	return buf
}

// EnableConfig builds the command that opens a configuration session with
// the radar module.
func EnableConfig() []byte {
	return buildCommand(cmdEnableConfig, []byte{0x01, 0x00})
}

// DisableConfig builds the command that ends a configuration session.
func DisableConfig() []byte {
	return buildCommand(cmdDisableConfig, nil)
}

// EnableEngineeringMode builds the command that switches the presence
// radar into the verbose per-gate engineering-mode frame format.
func EnableEngineeringMode() []byte {
	return buildCommand(cmdEnableEngineeringMode, nil)
}

// DisableEngineeringMode reverts to the module's normal reporting mode.
func DisableEngineeringMode() []byte {
	return buildCommand(cmdDisableEngineeringMode, nil)
}

// SetMaxGate builds the command that configures the maximum moving and
// stationary detection gate indices.
func SetMaxGate(movingGate, stationaryGate uint16) []byte {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:2], movingGate)
	binary.LittleEndian.PutUint16(data[2:4], stationaryGate)
	binary.LittleEndian.PutUint16(data[4:6], 0) // reserved duration field
	return buildCommand(cmdSetMaxGate, data)
}
