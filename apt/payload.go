package apt

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Payload sizes of the fixed-layout data packets.
const (
	StatusUpdateSize   = 14
	MoveTargetSize     = 6
	CounterReadingSize = 6
	VelParamsSize      = 14
	HomeParamsSize     = 14
	HardwareInfoSize   = 84
)

// StatusUpdate is the payload of GET_USTATUSUPDATE frames, also carried by
// MOVE_COMPLETED and MOVE_STOPPED notifications.
//
// Velocity is the reduced-range 16-bit field of the short status report;
// its scaling differs from the 32-bit velocity-parameter encoding and is
// device specific.
type StatusUpdate struct {
	Channel    uint16
	Position   int32 // encoder counts
	Velocity   uint16
	StatusBits uint32
}

// Status decodes the status dword into its bit fields.
func (u StatusUpdate) Status() AxisStatus {
	return decodeStatus(u.StatusBits)
}

// Encode serializes the status update to its 14-byte wire layout:
// channel(2) position(4) velocity(2) reserved(2) status(4).
func (u StatusUpdate) Encode() []byte {
	buf := make([]byte, StatusUpdateSize)
	binary.LittleEndian.PutUint16(buf[0:2], u.Channel)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(u.Position))
	binary.LittleEndian.PutUint16(buf[6:8], u.Velocity)
	binary.LittleEndian.PutUint32(buf[10:14], u.StatusBits)

	return buf
}

// DecodeStatusUpdate parses a 14-byte status-update payload.
func DecodeStatusUpdate(b []byte) (StatusUpdate, error) {
	if len(b) != StatusUpdateSize {
		return StatusUpdate{}, fmt.Errorf("%w: status update payload is %d bytes, want %d", ErrMalformedPacket, len(b), StatusUpdateSize)
	}

	return StatusUpdate{
		Channel:    binary.LittleEndian.Uint16(b[0:2]),
		Position:   int32(binary.LittleEndian.Uint32(b[2:6])),
		Velocity:   binary.LittleEndian.Uint16(b[6:8]),
		StatusBits: binary.LittleEndian.Uint32(b[10:14]),
	}, nil
}

// MoveTarget is the payload of MOVE_ABSOLUTE: a channel ident and the
// absolute target position in encoder counts.
type MoveTarget struct {
	Channel  uint16
	Position int32
}

// Encode serializes the target to its 6-byte wire layout.
func (t MoveTarget) Encode() []byte {
	buf := make([]byte, MoveTargetSize)
	binary.LittleEndian.PutUint16(buf[0:2], t.Channel)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(t.Position))

	return buf
}

// DecodeMoveTarget parses a 6-byte move-target payload.
func DecodeMoveTarget(b []byte) (MoveTarget, error) {
	if len(b) != MoveTargetSize {
		return MoveTarget{}, fmt.Errorf("%w: move target payload is %d bytes, want %d", ErrMalformedPacket, len(b), MoveTargetSize)
	}

	return MoveTarget{
		Channel:  binary.LittleEndian.Uint16(b[0:2]),
		Position: int32(binary.LittleEndian.Uint32(b[2:6])),
	}, nil
}

// CounterReading is the payload of GET_POSCOUNTER and GET_ENCCOUNTER.
type CounterReading struct {
	Channel uint16
	Count   int32
}

// Encode serializes the reading to its 6-byte wire layout.
func (c CounterReading) Encode() []byte {
	buf := make([]byte, CounterReadingSize)
	binary.LittleEndian.PutUint16(buf[0:2], c.Channel)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(c.Count))

	return buf
}

// DecodeCounterReading parses a 6-byte counter payload.
func DecodeCounterReading(b []byte) (CounterReading, error) {
	if len(b) != CounterReadingSize {
		return CounterReading{}, fmt.Errorf("%w: counter payload is %d bytes, want %d", ErrMalformedPacket, len(b), CounterReadingSize)
	}

	return CounterReading{
		Channel: binary.LittleEndian.Uint16(b[0:2]),
		Count:   int32(binary.LittleEndian.Uint32(b[2:6])),
	}, nil
}

// VelParams is the payload of SET_VEL_PARAMS and GET_VEL_PARAMS. All three
// values are in encoder velocity/acceleration counts.
type VelParams struct {
	Channel      uint16
	MinVelocity  int32
	Acceleration int32
	MaxVelocity  int32
}

// Encode serializes the parameters to their 14-byte wire layout:
// channel(2) min velocity(4) acceleration(4) max velocity(4).
func (v VelParams) Encode() []byte {
	buf := make([]byte, VelParamsSize)
	binary.LittleEndian.PutUint16(buf[0:2], v.Channel)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(v.MinVelocity))
	binary.LittleEndian.PutUint32(buf[6:10], uint32(v.Acceleration))
	binary.LittleEndian.PutUint32(buf[10:14], uint32(v.MaxVelocity))

	return buf
}

// DecodeVelParams parses a 14-byte velocity-parameter payload.
func DecodeVelParams(b []byte) (VelParams, error) {
	if len(b) != VelParamsSize {
		return VelParams{}, fmt.Errorf("%w: velocity params payload is %d bytes, want %d", ErrMalformedPacket, len(b), VelParamsSize)
	}

	return VelParams{
		Channel:      binary.LittleEndian.Uint16(b[0:2]),
		MinVelocity:  int32(binary.LittleEndian.Uint32(b[2:6])),
		Acceleration: int32(binary.LittleEndian.Uint32(b[6:10])),
		MaxVelocity:  int32(binary.LittleEndian.Uint32(b[10:14])),
	}, nil
}

// HomeParams is the payload of SET_HOME_PARAMS and GET_HOME_PARAMS.
type HomeParams struct {
	Channel     uint16
	Direction   uint16 // 1 forward, 2 reverse
	LimitSwitch uint16 // 1 hardware reverse, 4 hardware forward
	Velocity    int32  // homing velocity in encoder velocity counts
	Offset      int32  // zero offset from the limit switch in encoder counts
}

// Encode serializes the parameters to their 14-byte wire layout.
func (h HomeParams) Encode() []byte {
	buf := make([]byte, HomeParamsSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Channel)
	binary.LittleEndian.PutUint16(buf[2:4], h.Direction)
	binary.LittleEndian.PutUint16(buf[4:6], h.LimitSwitch)
	binary.LittleEndian.PutUint32(buf[6:10], uint32(h.Velocity))
	binary.LittleEndian.PutUint32(buf[10:14], uint32(h.Offset))

	return buf
}

// DecodeHomeParams parses a 14-byte homing-parameter payload.
func DecodeHomeParams(b []byte) (HomeParams, error) {
	if len(b) != HomeParamsSize {
		return HomeParams{}, fmt.Errorf("%w: home params payload is %d bytes, want %d", ErrMalformedPacket, len(b), HomeParamsSize)
	}

	return HomeParams{
		Channel:     binary.LittleEndian.Uint16(b[0:2]),
		Direction:   binary.LittleEndian.Uint16(b[2:4]),
		LimitSwitch: binary.LittleEndian.Uint16(b[4:6]),
		Velocity:    int32(binary.LittleEndian.Uint32(b[6:10])),
		Offset:      int32(binary.LittleEndian.Uint32(b[10:14])),
	}, nil
}

// HardwareInfo is the payload of HW_GET_INFO.
type HardwareInfo struct {
	SerialNumber    uint32
	ModelNumber     string // up to 8 characters
	Type            uint16
	FirmwareVersion string // "major.interim.minor"
	Notes           string // up to 48 characters
	HardwareVersion uint16
	ModState        uint16
	NumChannels     uint16
}

// Encode serializes the hardware info to its 84-byte wire layout:
// serial(4) model(8) type(2) firmware(4) notes(48) reserved(12)
// hw version(2) mod state(2) channels(2).
func (h HardwareInfo) Encode() []byte {
	buf := make([]byte, HardwareInfoSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.SerialNumber)
	copy(buf[4:12], h.ModelNumber)
	binary.LittleEndian.PutUint16(buf[12:14], h.Type)
	copy(buf[14:18], encodeFirmwareVersion(h.FirmwareVersion))
	copy(buf[18:66], h.Notes)
	binary.LittleEndian.PutUint16(buf[78:80], h.HardwareVersion)
	binary.LittleEndian.PutUint16(buf[80:82], h.ModState)
	binary.LittleEndian.PutUint16(buf[82:84], h.NumChannels)

	return buf
}

// DecodeHardwareInfo parses an 84-byte hardware-info payload.
func DecodeHardwareInfo(b []byte) (HardwareInfo, error) {
	if len(b) != HardwareInfoSize {
		return HardwareInfo{}, fmt.Errorf("%w: hardware info payload is %d bytes, want %d", ErrMalformedPacket, len(b), HardwareInfoSize)
	}

	return HardwareInfo{
		SerialNumber:    binary.LittleEndian.Uint32(b[0:4]),
		ModelNumber:     trimPadding(b[4:12]),
		Type:            binary.LittleEndian.Uint16(b[12:14]),
		FirmwareVersion: fmt.Sprintf("%d.%d.%d", b[16], b[15], b[14]),
		Notes:           trimPadding(b[18:66]),
		HardwareVersion: binary.LittleEndian.Uint16(b[78:80]),
		ModState:        binary.LittleEndian.Uint16(b[80:82]),
		NumChannels:     binary.LittleEndian.Uint16(b[82:84]),
	}, nil
}

// encodeFirmwareVersion packs a "major.interim.minor" string into the
// 4-byte field, minor byte first. Malformed strings encode as zeros.
func encodeFirmwareVersion(v string) []byte {
	out := make([]byte, 4)
	var major, interim, minor int
	if _, err := fmt.Sscanf(v, "%d.%d.%d", &major, &interim, &minor); err != nil {
		return out
	}
	out[0] = byte(minor)
	out[1] = byte(interim)
	out[2] = byte(major)

	return out
}

// trimPadding strips trailing NUL padding from fixed-width string fields.
func trimPadding(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
