package motor

import "errors"

// Sentinel errors for axis controllers.
var (
	// ErrOutOfRange indicates a position, velocity or acceleration outside
	// the device limits. The value is rejected before any transmission, so
	// the link state is unaffected and the call can be retried with a
	// corrected input.
	ErrOutOfRange = errors.New("motor: value out of range")

	// ErrConnNil indicates a nil connection was provided.
	ErrConnNil = errors.New("motor: connection is nil")

	// ErrInvalidModel indicates a device model with unusable constants.
	ErrInvalidModel = errors.New("motor: invalid model")
)
