package aptlink

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// APT line settings. The link always runs 8 data bits, 1 stop bit, no
// parity; framing is purely length and opcode driven, so no terminator is
// configured. Hardware flow control is left to the platform driver.
const (
	serialDataBits = 8
	serialStopBits = 1
	serialParity   = "N"
)

// Port is the byte stream the transport owns, usually a serial device.
//
// Implementations that also provide SetReadDeadline (net.Conn pipes in
// tests) get a deadline armed before each poll iteration; otherwise the
// port's own read timeout must bound each Read call, the way OpenPort
// configures it.
type Port interface {
	io.ReadWriteCloser
}

// readDeadliner is the optional Port upgrade used to arm per-poll read
// deadlines.
type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// OpenPort opens the serial device named by the configuration with the APT
// line settings. The configured poll interval becomes the port read
// timeout, so reads return periodically instead of hanging while the line
// is idle.
func OpenPort(cfg *ConnectionConfig) (Port, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if cfg.address == "" {
		return nil, errors.New("aptlink: serial address is empty")
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.address,
		BaudRate: cfg.baudRate,
		DataBits: serialDataBits,
		StopBits: serialStopBits,
		Parity:   serialParity,
		Timeout:  cfg.pollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("aptlink: open %s: %w", cfg.address, err)
	}

	return port, nil
}
