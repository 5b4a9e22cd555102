package radarparse

import "encoding/binary"

// Presence-radar (engineering mode) frame layout (spec §4.4.2, §6): 39 bytes.
const (
	PresenceFrameSize  = 39
	presenceHeaderLen  = 4
	presenceFooterLen  = 4
	presenceGateCount  = 8 // wire layout stores eight gates; a ninth is exposed as zero (spec §9)
	presenceExposedGates = 9
)

var presenceHeader = [presenceHeaderLen]byte{0xF4, 0xF3, 0xF2, 0xF1}
var presenceFooter = [presenceFooterLen]byte{0xF8, 0xF7, 0xF6, 0xF5}

// PresenceState bits describe which target categories the frame reports.
type PresenceState byte

const (
	PresenceNone       PresenceState = 0x00
	PresenceMoving     PresenceState = 0x01
	PresenceStationary PresenceState = 0x02
	PresenceBoth       PresenceState = 0x03
)

// PresenceFrame is one decoded 39-byte presence-radar frame.
type PresenceFrame struct {
	State                PresenceState
	MovingDistanceCm     uint16
	MovingEnergy         uint8
	StationaryDistanceCm uint16
	StationaryEnergy     uint8
	DetectionDistanceCm  uint16
	MovingGates          [presenceExposedGates]uint8
	StationaryGates      [presenceExposedGates]uint8
	Seq                  int64
	TimestampMs          int64
}

type presenceParseState int

const (
	presenceWaitHeader presenceParseState = iota
	presenceReceiveData
)

// PresenceParser is a sync-recovering byte-stream parser for the
// presence-radar's 39-byte engineering-mode frame format.
type PresenceParser struct {
	state     presenceParseState
	headerPos int
	buf       [PresenceFrameSize]byte
	bufLen    int
	declaredLen int

	seq int64

	FramesParsed  int64
	FramesInvalid int64
	SyncLost      int64
}

// NewPresenceParser creates a parser ready to accept bytes from WaitHeader.
func NewPresenceParser() *PresenceParser {
	return &PresenceParser{state: presenceWaitHeader}
}

// Reset returns the parser to WaitHeader and increments SyncLost.
func (p *PresenceParser) Reset() {
	p.state = presenceWaitHeader
	p.headerPos = 0
	p.bufLen = 0
	p.SyncLost++
}

// Feed processes a single incoming byte, mirroring TrackingParser.Feed's
// shape: mismatches in WaitHeader attempt to re-anchor on the mismatching
// byte, and a full frame is validated once PresenceFrameSize bytes have
// accumulated.
func (p *PresenceParser) Feed(b byte, nowMs int64) (PresenceFrame, bool) {
	switch p.state {
	case presenceWaitHeader:
		if b == presenceHeader[p.headerPos] {
			p.buf[p.headerPos] = b
			p.headerPos++
			if p.headerPos == presenceHeaderLen {
				p.bufLen = presenceHeaderLen
				p.state = presenceReceiveData
			}
			return PresenceFrame{}, false
		}
		if b == presenceHeader[0] {
			p.headerPos = 1
			p.buf[0] = b
		} else {
			p.headerPos = 0
		}
		return PresenceFrame{}, false

	case presenceReceiveData:
		p.buf[p.bufLen] = b
		p.bufLen++
		if p.bufLen < PresenceFrameSize {
			return PresenceFrame{}, false
		}

		frame, valid := p.decode(nowMs)
		p.state = presenceWaitHeader
		p.headerPos = 0
		p.bufLen = 0
		if !valid {
			p.FramesInvalid++
			return PresenceFrame{}, false
		}
		p.FramesParsed++
		return frame, true
	}
	return PresenceFrame{}, false
}

func (p *PresenceParser) decode(nowMs int64) (PresenceFrame, bool) {
	buf := p.buf[:]

	for i := 0; i < presenceHeaderLen; i++ {
		if buf[i] != presenceHeader[i] {
			return PresenceFrame{}, false
		}
	}
	for i := 0; i < presenceFooterLen; i++ {
		if buf[PresenceFrameSize-presenceFooterLen+i] != presenceFooter[i] {
			return PresenceFrame{}, false
		}
	}

	length := binary.LittleEndian.Uint16(buf[4:6])
	if length < 20 || length > 50 {
		return PresenceFrame{}, false
	}
	if buf[6] != 0x01 || buf[7] != 0xAA {
		return PresenceFrame{}, false
	}

	p.seq++
	frame := PresenceFrame{Seq: p.seq, TimestampMs: nowMs}
	frame.State = PresenceState(buf[8])
	frame.MovingDistanceCm = binary.LittleEndian.Uint16(buf[9:11])
	frame.MovingEnergy = buf[11]
	frame.StationaryDistanceCm = binary.LittleEndian.Uint16(buf[12:14])
	frame.StationaryEnergy = buf[14]
	frame.DetectionDistanceCm = binary.LittleEndian.Uint16(buf[15:17])

	for i := 0; i < presenceGateCount; i++ {
		frame.MovingGates[i] = buf[17+i]
		frame.StationaryGates[i] = buf[25+i]
	}
	// Ninth gate slot is exposed as zero (spec §9 open question).
	frame.MovingGates[presenceGateCount] = 0
	frame.StationaryGates[presenceGateCount] = 0

	if buf[33] != 0x55 {
		return PresenceFrame{}, false
	}
	// byte 34 is the fixed check byte (0x00), not validated beyond framing.

	return frame, true
}
