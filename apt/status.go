package apt

import (
	"encoding/binary"
	"fmt"
)

// Status dword bit masks. Bits not listed here are reserved and ignored.
const (
	statusFwdLimit    uint32 = 0x00000001
	statusRevLimit    uint32 = 0x00000002
	statusMovingFwd   uint32 = 0x00000010
	statusMovingRev   uint32 = 0x00000020
	statusJoggingFwd  uint32 = 0x00000040
	statusJoggingRev  uint32 = 0x00000080
	statusHoming      uint32 = 0x00000200
	statusHomed       uint32 = 0x00000400
	statusTracking    uint32 = 0x00001000
	statusSettled     uint32 = 0x00002000
	statusMotionError uint32 = 0x00004000
	statusCurrentLim  uint32 = 0x01000000
	statusEnabled     uint32 = 0x80000000
)

// StatusBitsSize is the size of the status dword inside status payloads.
const StatusBitsSize = 4

// AxisStatus is the status bit field of one axis, decoded into fixed
// boolean fields. Values are a read-only projection of the frame that
// produced them; nothing here is cached or updated in place.
type AxisStatus struct {
	ForwardLimit   bool // forward hardware limit switch active
	ReverseLimit   bool // reverse hardware limit switch active
	MovingForward  bool
	MovingReverse  bool
	JoggingForward bool
	JoggingReverse bool
	Homing         bool
	Homed          bool
	Tracking       bool // within the tracking window
	Settled        bool // stopped within the settle window
	MotionError    bool // excessive position error
	CurrentLimit   bool // motor current limit reached
	Enabled        bool // channel output enabled
}

// DecodeStatusBits decodes a 4-byte little-endian status dword.
// b must be exactly StatusBitsSize bytes.
func DecodeStatusBits(b []byte) (AxisStatus, error) {
	if len(b) != StatusBitsSize {
		return AxisStatus{}, fmt.Errorf("%w: status field is %d bytes, want %d", ErrMalformedPacket, len(b), StatusBitsSize)
	}

	return decodeStatus(binary.LittleEndian.Uint32(b)), nil
}

func decodeStatus(bits uint32) AxisStatus {
	return AxisStatus{
		ForwardLimit:   bits&statusFwdLimit != 0,
		ReverseLimit:   bits&statusRevLimit != 0,
		MovingForward:  bits&statusMovingFwd != 0,
		MovingReverse:  bits&statusMovingRev != 0,
		JoggingForward: bits&statusJoggingFwd != 0,
		JoggingReverse: bits&statusJoggingRev != 0,
		Homing:         bits&statusHoming != 0,
		Homed:          bits&statusHomed != 0,
		Tracking:       bits&statusTracking != 0,
		Settled:        bits&statusSettled != 0,
		MotionError:    bits&statusMotionError != 0,
		CurrentLimit:   bits&statusCurrentLim != 0,
		Enabled:        bits&statusEnabled != 0,
	}
}

// Bits re-encodes the status into its dword form. Inverse of
// DecodeStatusBits for the documented bits.
func (s AxisStatus) Bits() uint32 {
	var bits uint32
	set := func(on bool, mask uint32) {
		if on {
			bits |= mask
		}
	}

	set(s.ForwardLimit, statusFwdLimit)
	set(s.ReverseLimit, statusRevLimit)
	set(s.MovingForward, statusMovingFwd)
	set(s.MovingReverse, statusMovingRev)
	set(s.JoggingForward, statusJoggingFwd)
	set(s.JoggingReverse, statusJoggingRev)
	set(s.Homing, statusHoming)
	set(s.Homed, statusHomed)
	set(s.Tracking, statusTracking)
	set(s.Settled, statusSettled)
	set(s.MotionError, statusMotionError)
	set(s.CurrentLimit, statusCurrentLim)
	set(s.Enabled, statusEnabled)

	return bits
}

// InMotion reports whether any moving, jogging or homing bit is set.
func (s AxisStatus) InMotion() bool {
	return s.MovingForward || s.MovingReverse ||
		s.JoggingForward || s.JoggingReverse || s.Homing
}
