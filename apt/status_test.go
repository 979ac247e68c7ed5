package apt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leStatus(bits uint32) []byte {
	b := make([]byte, StatusBitsSize)
	binary.LittleEndian.PutUint32(b, bits)
	return b
}

func TestDecodeStatusBits_SingleBits(t *testing.T) {
	tests := []struct {
		name string
		bits uint32
		want AxisStatus
	}{
		{"forward limit", 0x00000001, AxisStatus{ForwardLimit: true}},
		{"reverse limit", 0x00000002, AxisStatus{ReverseLimit: true}},
		{"moving forward", 0x00000010, AxisStatus{MovingForward: true}},
		{"moving reverse", 0x00000020, AxisStatus{MovingReverse: true}},
		{"jogging forward", 0x00000040, AxisStatus{JoggingForward: true}},
		{"jogging reverse", 0x00000080, AxisStatus{JoggingReverse: true}},
		{"homing", 0x00000200, AxisStatus{Homing: true}},
		{"homed", 0x00000400, AxisStatus{Homed: true}},
		{"tracking", 0x00001000, AxisStatus{Tracking: true}},
		{"settled", 0x00002000, AxisStatus{Settled: true}},
		{"motion error", 0x00004000, AxisStatus{MotionError: true}},
		{"current limit", 0x01000000, AxisStatus{CurrentLimit: true}},
		{"enabled", 0x80000000, AxisStatus{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStatusBits(leStatus(tt.bits))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeStatusBits_Combined(t *testing.T) {
	// Enabled, homed and settled: the usual idle state after homing.
	got, err := DecodeStatusBits(leStatus(0x80002400))
	require.NoError(t, err)

	assert.True(t, got.Enabled)
	assert.True(t, got.Homed)
	assert.True(t, got.Settled)
	assert.False(t, got.InMotion())
}

func TestDecodeStatusBits_ReservedBitsIgnored(t *testing.T) {
	got, err := DecodeStatusBits(leStatus(0x00000104)) // only reserved bits
	require.NoError(t, err)
	assert.Equal(t, AxisStatus{}, got)
}

func TestDecodeStatusBits_WrongLength(t *testing.T) {
	for _, n := range []int{0, 3, 5, 14} {
		_, err := DecodeStatusBits(make([]byte, n))
		require.Error(t, err, "length %d must not decode", n)
		assert.ErrorIs(t, err, ErrMalformedPacket)
	}
}

func TestAxisStatus_Bits_RoundTrip(t *testing.T) {
	s := AxisStatus{
		Enabled:       true,
		Homed:         true,
		MovingForward: true,
		Tracking:      true,
	}

	got, err := DecodeStatusBits(leStatus(s.Bits()))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestAxisStatus_InMotion(t *testing.T) {
	assert.False(t, AxisStatus{}.InMotion())
	assert.False(t, AxisStatus{Enabled: true, Homed: true}.InMotion())

	assert.True(t, AxisStatus{MovingForward: true}.InMotion())
	assert.True(t, AxisStatus{MovingReverse: true}.InMotion())
	assert.True(t, AxisStatus{JoggingForward: true}.InMotion())
	assert.True(t, AxisStatus{JoggingReverse: true}.InMotion())
	assert.True(t, AxisStatus{Homing: true}.InMotion())
}
