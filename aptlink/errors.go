package aptlink

import "errors"

// Sentinel errors for the APT link transport.
var (
	// ErrConnClosed indicates the connection is closed or its link integrity
	// has been lost. All further I/O fails fast with this error.
	ErrConnClosed = errors.New("aptlink: connection closed")

	// ErrReadTimeout indicates the configured response timeout expired while
	// waiting for a matching frame. A reply may still be in flight, so the
	// link is poisoned and must be re-established.
	ErrReadTimeout = errors.New("aptlink: response timeout")

	// ErrPortNil indicates a nil Port was provided.
	ErrPortNil = errors.New("aptlink: port is nil")

	// ErrConfigNil indicates a nil ConnectionConfig was provided.
	ErrConfigNil = errors.New("aptlink: connection config is nil")
)
