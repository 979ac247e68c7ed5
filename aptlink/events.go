package aptlink

import "sync/atomic"

// AxisEvents records unsolicited completion notifications for one
// registered axis.
//
// The read loop stores a flag here whenever a MOVE_COMPLETED, MOVE_STOPPED
// or MOVE_HOMED frame arrives from this axis while some other reply was
// being awaited. Axis controllers consume the flags with the Take methods
// before blocking on their own completion frame, so a completion that
// slipped in out of order is never lost.
//
// The fields are atomics so a controller may inspect them from a different
// goroutine than the one driving the transport.
type AxisEvents struct {
	moveDone   atomic.Bool
	homed      atomic.Bool
	stopDone   atomic.Bool
	statusBits atomic.Uint32
}

// TakeMoveDone consumes a recorded MOVE_COMPLETED notification, reporting
// whether one had arrived.
func (e *AxisEvents) TakeMoveDone() bool {
	return e.moveDone.Swap(false)
}

// TakeHomed consumes a recorded MOVE_HOMED notification, reporting whether
// one had arrived.
func (e *AxisEvents) TakeHomed() bool {
	return e.homed.Swap(false)
}

// TakeStopDone consumes a recorded MOVE_STOPPED notification, reporting
// whether one had arrived.
func (e *AxisEvents) TakeStopDone() bool {
	return e.stopDone.Swap(false)
}

// LastStatusBits returns the status dword carried by the most recent
// notification payload, or zero when none carried one.
func (e *AxisEvents) LastStatusBits() uint32 {
	return e.statusBits.Load()
}
