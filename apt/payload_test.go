package apt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Status update payload ---

func TestStatusUpdate_WireLayout(t *testing.T) {
	u := StatusUpdate{
		Channel:    1,
		Position:   100000, // 0x000186A0
		Velocity:   0x0102,
		StatusBits: 0x80000400,
	}

	wire := u.Encode()
	require.Len(t, wire, StatusUpdateSize)

	assert.Equal(t, []byte{0x01, 0x00}, wire[0:2], "channel")
	assert.Equal(t, []byte{0xA0, 0x86, 0x01, 0x00}, wire[2:6], "position")
	assert.Equal(t, []byte{0x02, 0x01}, wire[6:8], "velocity")
	assert.Equal(t, []byte{0x00, 0x00}, wire[8:10], "reserved")
	assert.Equal(t, []byte{0x00, 0x04, 0x00, 0x80}, wire[10:14], "status bits")
}

func TestStatusUpdate_RoundTrip(t *testing.T) {
	u := StatusUpdate{
		Channel:    1,
		Position:   -42000,
		Velocity:   512,
		StatusBits: 0x80000420,
	}

	got, err := DecodeStatusUpdate(u.Encode())
	require.NoError(t, err)
	assert.Equal(t, u, got)

	st := got.Status()
	assert.True(t, st.Enabled)
	assert.True(t, st.Homed)
	assert.True(t, st.MovingReverse)
}

func TestDecodeStatusUpdate_WrongSize(t *testing.T) {
	_, err := DecodeStatusUpdate(make([]byte, 13))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

// --- Move target payload ---

func TestMoveTarget_WireLayout(t *testing.T) {
	wire := MoveTarget{Channel: 1, Position: -2000}.Encode()
	require.Len(t, wire, MoveTargetSize)

	// -2000 = 0xFFFFF830 little-endian.
	assert.Equal(t, []byte{0x01, 0x00, 0x30, 0xF8, 0xFF, 0xFF}, wire)
}

func TestMoveTarget_RoundTrip(t *testing.T) {
	for _, pos := range []int32{0, 1, -1, 60000, -60000, 1 << 30} {
		got, err := DecodeMoveTarget(MoveTarget{Channel: 1, Position: pos}.Encode())
		require.NoError(t, err)
		assert.Equal(t, pos, got.Position)
	}
}

func TestDecodeMoveTarget_WrongSize(t *testing.T) {
	_, err := DecodeMoveTarget(make([]byte, 4))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

// --- Counter payload ---

func TestCounterReading_RoundTrip(t *testing.T) {
	c := CounterReading{Channel: 1, Count: 123456}
	got, err := DecodeCounterReading(c.Encode())
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

// --- Velocity parameter payload ---

func TestVelParams_WireLayout(t *testing.T) {
	v := VelParams{
		Channel:      1,
		MinVelocity:  0,
		Acceleration: 0x00010203,
		MaxVelocity:  0x04050607,
	}

	wire := v.Encode()
	require.Len(t, wire, VelParamsSize)

	assert.Equal(t, []byte{0x01, 0x00}, wire[0:2])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, wire[2:6])
	assert.Equal(t, []byte{0x03, 0x02, 0x01, 0x00}, wire[6:10])
	assert.Equal(t, []byte{0x07, 0x06, 0x05, 0x04}, wire[10:14])
}

func TestVelParams_RoundTrip(t *testing.T) {
	v := VelParams{Channel: 1, MinVelocity: 10, Acceleration: 9000, MaxVelocity: 1500000}
	got, err := DecodeVelParams(v.Encode())
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

// --- Home parameter payload ---

func TestHomeParams_RoundTrip(t *testing.T) {
	h := HomeParams{
		Channel:     1,
		Direction:   2,
		LimitSwitch: 1,
		Velocity:    200000,
		Offset:      4096,
	}

	got, err := DecodeHomeParams(h.Encode())
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

// --- Hardware info payload ---

func TestHardwareInfo_RoundTrip(t *testing.T) {
	h := HardwareInfo{
		SerialNumber:    94000001,
		ModelNumber:     "BBD102",
		Type:            44,
		FirmwareVersion: "2.0.6",
		Notes:           "APT DC Motor Controller",
		HardwareVersion: 2,
		ModState:        0,
		NumChannels:     2,
	}

	wire := h.Encode()
	require.Len(t, wire, HardwareInfoSize)

	got, err := DecodeHardwareInfo(wire)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeHardwareInfo_WrongSize(t *testing.T) {
	_, err := DecodeHardwareInfo(make([]byte, 83))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}
