package apt

import "errors"

// Contract violations. These signal a programming error at the call site
// and must not be retried.
var (
	// ErrUnknownCommand indicates a symbolic command name with no entry in
	// the command table.
	ErrUnknownCommand = errors.New("apt: unknown command name")

	// ErrInvalidOpcode indicates an opcode outside the command table.
	// Encoding fails closed: only table opcodes may be transmitted.
	ErrInvalidOpcode = errors.New("apt: invalid opcode")
)

// Wire integrity errors.
var (
	// ErrIncompleteFrame indicates fewer bytes than one complete frame where
	// the caller asserted a full frame was available. The stream offset can
	// no longer be trusted and the link must be re-established.
	ErrIncompleteFrame = errors.New("apt: incomplete frame")

	// ErrMalformedPacket indicates a structurally invalid packet or payload
	// field, such as a payload slice of the wrong size.
	ErrMalformedPacket = errors.New("apt: malformed packet")
)
