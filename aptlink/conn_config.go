package aptlink

import (
	"errors"
	"fmt"
	"time"

	"github.com/OMS-lab/go-apt/logger"
)

// Default connection parameters.
const (
	// DefaultBaudRate is the line rate used by APT controllers.
	DefaultBaudRate = 115200

	// DefaultSourceAddress is the host controller address stamped into
	// outgoing frames.
	DefaultSourceAddress byte = 0x01

	// DefaultKeepAliveThreshold is the number of writes after which a
	// keep-alive acknowledgement burst is issued, tuned well below the
	// 50-write deadline at which the device drops the link.
	DefaultKeepAliveThreshold = 20

	// DefaultPollInterval bounds each poll iteration of a blocking read.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultResponseTimeout of zero blocks indefinitely: the synchronous
	// model leaves cancellation policy to the caller.
	DefaultResponseTimeout = 0
)

// Parameter limits.
const (
	// MaxKeepAliveThreshold keeps the refresh strictly below the device's
	// 50-write link deadline.
	MaxKeepAliveThreshold = 49

	MinPollInterval = time.Millisecond
)

// Well-known APT device addresses.
const (
	// HostAddress is the PC side of the link.
	HostAddress byte = 0x01

	// GenericUSBAddress is a standalone USB controller unit.
	GenericUSBAddress byte = 0x50

	// Bay1Address and Bay2Address are card slots of rack and multi-channel
	// benchtop controllers.
	Bay1Address byte = 0x21
	Bay2Address byte = 0x22
)

// ConnectionConfig holds all configuration for one APT serial link.
type ConnectionConfig struct {
	// address is the serial device path, e.g. "/dev/ttyUSB0" or "COM3".
	// Required by Dial and OpenPort; connections built on an injected Port
	// may leave it empty.
	address string

	baudRate   int
	sourceAddr byte

	keepAliveThreshold int
	responseTimeout    time.Duration
	pollInterval       time.Duration

	logger logger.Logger
}

// NewConnectionConfig creates a connection configuration for the serial
// device at address.
//
// opts are functional options applied in order; see the With* functions.
func NewConnectionConfig(address string, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		address:            address,
		baudRate:           DefaultBaudRate,
		sourceAddr:         DefaultSourceAddress,
		keepAliveThreshold: DefaultKeepAliveThreshold,
		responseTimeout:    DefaultResponseTimeout,
		pollInterval:       DefaultPollInterval,
		logger:             logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// Address returns the serial device path.
func (cfg *ConnectionConfig) Address() string { return cfg.address }

// BaudRate returns the configured line rate.
func (cfg *ConnectionConfig) BaudRate() int { return cfg.baudRate }

// SourceAddress returns the host address stamped into outgoing frames.
func (cfg *ConnectionConfig) SourceAddress() byte { return cfg.sourceAddr }

// KeepAliveThreshold returns the write count that triggers a keep-alive
// acknowledgement burst.
func (cfg *ConnectionConfig) KeepAliveThreshold() int { return cfg.keepAliveThreshold }

// ResponseTimeout returns the reply deadline for blocking reads.
// Zero means block indefinitely.
func (cfg *ConnectionConfig) ResponseTimeout() time.Duration { return cfg.responseTimeout }

// PollInterval returns the poll granularity of blocking reads.
func (cfg *ConnectionConfig) PollInterval() time.Duration { return cfg.pollInterval }

// GetLogger returns the configured logger.
func (cfg *ConnectionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ConnOption ---

// ConnOption is a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc func(*ConnectionConfig) error

func (f connOptFunc) apply(cfg *ConnectionConfig) error { return f(cfg) }

// WithBaudRate sets the serial line rate. APT controllers run at 115200.
func WithBaudRate(rate int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if rate <= 0 {
			return fmt.Errorf("aptlink: baud rate %d must be positive", rate)
		}
		cfg.baudRate = rate

		return nil
	})
}

// WithSourceAddress sets the host address stamped into outgoing frames.
func WithSourceAddress(addr byte) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.sourceAddr = addr

		return nil
	})
}

// WithKeepAliveThreshold sets the number of writes after which the
// keep-alive acknowledgement burst is issued. Must be in
// [1, MaxKeepAliveThreshold]: the device drops the link after 50 writes
// without an acknowledgement, so the threshold has to stay below that.
func WithKeepAliveThreshold(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 1 || n > MaxKeepAliveThreshold {
			return fmt.Errorf("aptlink: keep-alive threshold %d out of range [1, %d]", n, MaxKeepAliveThreshold)
		}
		cfg.keepAliveThreshold = n

		return nil
	})
}

// WithResponseTimeout sets the deadline for blocking reads. Zero disables
// the deadline. When a configured deadline expires the link is poisoned:
// the reply may still arrive mid-stream, so the connection cannot be
// trusted afterwards.
func WithResponseTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < 0 {
			return errors.New("aptlink: response timeout must not be negative")
		}
		cfg.responseTimeout = d

		return nil
	})
}

// WithPollInterval sets the poll granularity of blocking reads. It bounds
// how long one read iteration waits for bytes before re-checking the
// response deadline.
func WithPollInterval(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < MinPollInterval {
			return fmt.Errorf("aptlink: poll interval %v below minimum %v", d, MinPollInterval)
		}
		cfg.pollInterval = d

		return nil
	})
}

// WithLogger sets the logger for the connection.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("aptlink: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
