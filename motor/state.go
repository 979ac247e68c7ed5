package motor

// AxisState represents the lifecycle stage of one axis controller.
type AxisState uint32

// Axis lifecycle states. Homing and Moving are always synchronous and
// return to Idle only after the matching completion frame; a fatal
// transport error forces the axis back to Disconnected.
const (
	// StateDisconnected indicates the link to the axis is lost. All further
	// operations fail until the connection is re-established and the axis
	// rebuilt.
	StateDisconnected AxisState = iota

	// StateIdle indicates the axis is connected and not in motion.
	StateIdle

	// StateHoming indicates a homing sequence is in flight.
	StateHoming

	// StateMoving indicates a move, jog or stop is in flight.
	StateMoving
)

// IsDisconnected reports whether the axis lost its link.
func (s AxisState) IsDisconnected() bool { return s == StateDisconnected }

// IsIdle reports whether the axis is connected and motionless.
func (s AxisState) IsIdle() bool { return s == StateIdle }

// IsHoming reports whether a homing sequence is in flight.
func (s AxisState) IsHoming() bool { return s == StateHoming }

// IsMoving reports whether a move is in flight.
func (s AxisState) IsMoving() bool { return s == StateMoving }

// String returns the string representation of the current state.
func (s AxisState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateIdle:
		return "idle"
	case StateHoming:
		return "homing"
	case StateMoving:
		return "moving"
	default:
		return "unknown"
	}
}
