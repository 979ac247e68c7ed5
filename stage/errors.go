package stage

import "errors"

// Sentinel errors for stage assemblies.
var (
	// ErrNotConnected indicates an operation was called before Connect.
	ErrNotConnected = errors.New("stage: not connected")

	// ErrUnknownModel indicates a profile names a device model this
	// package does not know.
	ErrUnknownModel = errors.New("stage: unknown device model")

	// ErrConnNil indicates a nil connection was provided.
	ErrConnNil = errors.New("stage: connection is nil")

	// ErrAxisNil indicates a nil axis was provided.
	ErrAxisNil = errors.New("stage: axis is nil")
)
