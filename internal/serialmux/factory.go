package serialmux

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// RealFactory opens serial ports backed by go.bug.st/serial, the same
// library the teacher wires for its own radar UART connection.
type RealFactory struct{}

// Open implements SerialPortFactory against a real OS serial device.
func (RealFactory) Open(path string, mode *SerialPortMode) (SerialPorter, error) {
	if mode == nil {
		mode = DefaultSerialPortMode()
	}

	m := &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
		Parity:   toLibParity(mode.Parity),
		StopBits: toLibStopBits(mode.StopBits),
	}

	port, err := serial.Open(path, m)
	if err != nil {
		return nil, fmt.Errorf("serialmux: open %s: %w", path, err)
	}
	return &realPort{Port: port}, nil
}

// realPort adapts go.bug.st/serial's Port to TimeoutSerialPorter.
type realPort struct {
	serial.Port
}

func (p *realPort) SetReadTimeout(d time.Duration) error {
	return p.Port.SetReadTimeout(d)
}

func toLibParity(p Parity) serial.Parity {
	switch p {
	case OddParity:
		return serial.OddParity
	case EvenParity:
		return serial.EvenParity
	default:
		return serial.NoParity
	}
}

func toLibStopBits(s StopBits) serial.StopBits {
	if s == TwoStopBits {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}
