package motor

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/OMS-lab/go-apt/apt"
	"github.com/OMS-lab/go-apt/aptlink"
	"github.com/OMS-lab/go-apt/logger"
)

// Channel enable states carried in param2 of the CHANENABLESTATE commands.
const (
	chanEnabled  byte = 0x01
	chanDisabled byte = 0x02
)

// Stop modes carried in param2 of MOVE_STOP.
const (
	stopImmediate byte = 0x01
	stopProfiled  byte = 0x02
)

// JogDirection selects the direction of a single jog step.
type JogDirection byte

// Jog directions.
const (
	JogForward JogDirection = 0x01
	JogReverse JogDirection = 0x02
)

// Axis is the controller of one physical axis. It owns the axis state
// (address, scale constants, soft limits, backlash, zero offset, homed
// cache) and issues synchronous operations over a shared connection.
//
// An Axis is NOT goroutine-safe; see the package documentation.
type Axis struct {
	conn   *aptlink.Connection
	events *aptlink.AxisEvents
	model  Model
	logger logger.Logger

	dest    byte
	channel uint16

	limitMin float64 // absolute stage coordinates
	limitMax float64
	backlash float64
	minMove  float64

	zeroOffset float64
	homed      bool

	state atomic.Uint32
}

// NewAxis creates the controller of one axis reachable at a destination
// address on conn. The model supplies scale constants and default soft
// limits, backlash and min-move; options override the defaults. The axis
// destination joins the connection's keep-alive set.
func NewAxis(conn *aptlink.Connection, model Model, opts ...AxisOption) (*Axis, error) {
	if conn == nil {
		return nil, ErrConnNil
	}
	if err := model.validate(); err != nil {
		return nil, err
	}

	a := &Axis{
		conn:     conn,
		model:    model,
		logger:   logger.GetLogger(),
		dest:     aptlink.GenericUSBAddress,
		channel:  1,
		limitMin: model.TravelMin,
		limitMax: model.TravelMax,
		backlash: model.Backlash,
		minMove:  model.MinMove,
	}

	for _, opt := range opts {
		if err := opt.apply(a); err != nil {
			return nil, err
		}
	}

	a.events = conn.RegisterAxis(a.dest)
	a.state.Store(uint32(StateIdle))

	return a, nil
}

// --- Accessors ---

// Model returns the device model constants.
func (a *Axis) Model() Model { return a.model }

// Destination returns the axis device address.
func (a *Axis) Destination() byte { return a.dest }

// SoftLimits returns the configured position bounds in absolute stage
// coordinates.
func (a *Axis) SoftLimits() (min, max float64) { return a.limitMin, a.limitMax }

// Backlash returns the compensation distance applied on direction
// reversal.
func (a *Axis) Backlash() float64 { return a.backlash }

// MinMove returns the minimum-move cutoff.
func (a *Axis) MinMove() float64 { return a.minMove }

// ZeroOffset returns the current reference point in absolute stage
// coordinates.
func (a *Axis) ZeroOffset() float64 { return a.zeroOffset }

// SetZero sets the reference point. Subsequent positions and move targets
// are relative to offset.
func (a *Axis) SetZero(offset float64) { a.zeroOffset = offset }

// Homed returns the homed flag cached from the last status read. It may
// be stale; Status refreshes it.
func (a *Axis) Homed() bool { return a.homed }

// State returns the current lifecycle state of the axis.
func (a *Axis) State() AxisState { return AxisState(a.state.Load()) }

func (a *Axis) setState(s AxisState) { a.state.Store(uint32(s)) }

// --- Status and position ---

// Status requests a status update and returns the decoded status flags,
// the position and the velocity in physical units. The homed flag cache
// refreshes from the reply.
func (a *Axis) Status() (apt.AxisStatus, float64, float64, error) {
	req := apt.NewPacket(apt.ReqUStatusUpdate, byte(a.channel), 0, a.dest, 0)

	reply, err := a.conn.RoundTrip(req, apt.GetUStatusUpdate, a.dest)
	if err != nil {
		return apt.AxisStatus{}, 0, 0, a.fatal(err)
	}

	upd, err := apt.DecodeStatusUpdate(reply.Payload)
	if err != nil {
		return apt.AxisStatus{}, 0, 0, a.fatal(err)
	}

	status := upd.Status()
	a.homed = status.Homed

	pos := a.model.CountsToPosition(upd.Position) - a.zeroOffset
	vel := a.model.StatusVelocity(upd.Velocity)

	return status, pos, vel, nil
}

// Position requests the position counter and returns the position in
// physical units relative to the zero offset.
func (a *Axis) Position() (float64, error) {
	req := apt.NewPacket(apt.ReqPosCounter, byte(a.channel), 0, a.dest, 0)

	reply, err := a.conn.RoundTrip(req, apt.GetPosCounter, a.dest)
	if err != nil {
		return 0, a.fatal(err)
	}

	reading, err := apt.DecodeCounterReading(reply.Payload)
	if err != nil {
		return 0, a.fatal(err)
	}

	return a.model.CountsToPosition(reading.Count) - a.zeroOffset, nil
}

// EncoderCount requests the raw encoder counter of the axis.
func (a *Axis) EncoderCount() (int32, error) {
	req := apt.NewPacket(apt.ReqEncCounter, byte(a.channel), 0, a.dest, 0)

	reply, err := a.conn.RoundTrip(req, apt.GetEncCounter, a.dest)
	if err != nil {
		return 0, a.fatal(err)
	}

	reading, err := apt.DecodeCounterReading(reply.Payload)
	if err != nil {
		return 0, a.fatal(err)
	}

	return reading.Count, nil
}

// --- Motion ---

// MoveAbsolute moves the axis to target (physical units relative to the
// zero offset) and blocks until the move completes.
//
// Targets outside the soft limits fail with ErrOutOfRange before any
// transmission. Moves shorter than the min-move cutoff are a no-op. When
// backlash compensation is configured, a negative-direction move first
// overshoots to target-backlash so the final approach is always made in
// the positive direction.
func (a *Axis) MoveAbsolute(target float64) error {
	return a.moveAbsolute(target, false)
}

// moveAbsolute implements MoveAbsolute. forced marks the backlash
// overshoot leg: it skips the min-move cutoff and the compensation
// recursion, keeping only the soft-limit validation.
func (a *Axis) moveAbsolute(target float64, forced bool) error {
	abs := target + a.zeroOffset
	if abs < a.limitMin || abs > a.limitMax {
		return fmt.Errorf("%w: target %.4f %s outside soft limits [%.4f, %.4f]",
			ErrOutOfRange, target, a.model.Unit, a.limitMin-a.zeroOffset, a.limitMax-a.zeroOffset)
	}

	if !forced {
		current, err := a.Position()
		if err != nil {
			return err
		}

		if math.Abs(target-current) < a.minMove {
			a.logger.Debug("motor: move below cutoff, skipping",
				"dest", a.dest, "target", target, "current", current)

			return nil
		}

		if a.backlash > 0 && target < current {
			// Overshoot clamps to the lower soft limit so compensation
			// never exits the permitted range.
			overshoot := target - a.backlash
			if overshoot+a.zeroOffset < a.limitMin {
				overshoot = a.limitMin - a.zeroOffset
			}

			if err := a.moveAbsolute(overshoot, true); err != nil {
				return err
			}
		}
	}

	move := apt.MoveTarget{Channel: a.channel, Position: a.model.PositionToCounts(abs)}

	a.setState(StateMoving)

	err := a.conn.Write(apt.NewDataPacket(apt.MoveAbsolute, a.dest, 0, move.Encode()))
	if err == nil {
		err = a.waitMoveDone()
	}
	if err != nil {
		return a.fatal(err)
	}

	a.setState(StateIdle)
	a.logger.Debug("motor: move completed", "dest", a.dest, "target", target)

	return nil
}

// Home runs the homing sequence and blocks until the axis reports homed.
// When the axis already reports homed and force is false, the call is a
// no-op.
func (a *Axis) Home(force bool) error {
	status, _, _, err := a.Status()
	if err != nil {
		return err
	}

	if status.Homed && !force {
		a.logger.Debug("motor: already homed", "dest", a.dest)
		return nil
	}

	a.setState(StateHoming)

	err = a.conn.Write(apt.NewPacket(apt.MoveHome, byte(a.channel), 0, a.dest, 0))
	if err == nil {
		err = a.waitHomed()
	}
	if err != nil {
		return a.fatal(err)
	}

	a.homed = true
	a.setState(StateIdle)
	a.logger.Debug("motor: homed", "dest", a.dest)

	return nil
}

// Stop halts motion with the profiled deceleration ramp and blocks until
// the axis reports stopped.
func (a *Axis) Stop() error {
	return a.stop(stopProfiled)
}

// StopImmediate halts motion abruptly, without the deceleration ramp, and
// blocks until the axis reports stopped.
func (a *Axis) StopImmediate() error {
	return a.stop(stopImmediate)
}

func (a *Axis) stop(mode byte) error {
	err := a.conn.Write(apt.NewPacket(apt.MoveStop, byte(a.channel), mode, a.dest, 0))
	if err == nil {
		err = a.waitStopped()
	}
	if err != nil {
		return a.fatal(err)
	}

	a.setState(StateIdle)

	return nil
}

// Jog performs one jog step in the given direction and blocks until the
// step completes. Step size and mode follow the controller's configured
// jog parameters.
func (a *Axis) Jog(dir JogDirection) error {
	if dir != JogForward && dir != JogReverse {
		return fmt.Errorf("%w: jog direction 0x%02X", ErrOutOfRange, byte(dir))
	}

	a.setState(StateMoving)

	err := a.conn.Write(apt.NewPacket(apt.MoveJog, byte(a.channel), byte(dir), a.dest, 0))
	if err == nil {
		err = a.waitMoveDone()
	}
	if err != nil {
		return a.fatal(err)
	}

	a.setState(StateIdle)

	return nil
}

// Completion waits consume a notification recorded while some other reply
// was in flight before blocking on the wire, so an out-of-order completion
// is never lost.

func (a *Axis) waitMoveDone() error {
	if a.events.TakeMoveDone() {
		return nil
	}

	_, err := a.conn.Read(apt.MoveCompleted, a.dest)

	return err
}

func (a *Axis) waitHomed() error {
	if a.events.TakeHomed() {
		return nil
	}

	_, err := a.conn.Read(apt.MoveHomed, a.dest)

	return err
}

func (a *Axis) waitStopped() error {
	if a.events.TakeStopDone() {
		return nil
	}

	_, err := a.conn.Read(apt.MoveStopped, a.dest)

	return err
}

// --- Parameters ---

// SetVelocityParams sets the profiled-move maximum velocity (unit/s) and
// acceleration (unit/s^2). Values outside the model limits fail with
// ErrOutOfRange before any transmission. The command has no response.
func (a *Axis) SetVelocityParams(velocity, acceleration float64) error {
	if velocity <= 0 || velocity > a.model.MaxVelocity {
		return fmt.Errorf("%w: velocity %.4f outside (0, %.4f] %s/s",
			ErrOutOfRange, velocity, a.model.MaxVelocity, a.model.Unit)
	}
	if acceleration <= 0 || acceleration > a.model.MaxAccel {
		return fmt.Errorf("%w: acceleration %.4f outside (0, %.4f] %s/s^2",
			ErrOutOfRange, acceleration, a.model.MaxAccel, a.model.Unit)
	}

	params := apt.VelParams{
		Channel:      a.channel,
		Acceleration: a.model.AccelerationToCounts(acceleration),
		MaxVelocity:  a.model.VelocityToCounts(velocity),
	}

	if err := a.conn.Write(apt.NewDataPacket(apt.SetVelParams, a.dest, 0, params.Encode())); err != nil {
		return a.fatal(err)
	}

	return nil
}

// VelocityParams reads back the profiled-move maximum velocity and
// acceleration in physical units.
func (a *Axis) VelocityParams() (velocity, acceleration float64, err error) {
	req := apt.NewPacket(apt.ReqVelParams, byte(a.channel), 0, a.dest, 0)

	reply, err := a.conn.RoundTrip(req, apt.GetVelParams, a.dest)
	if err != nil {
		return 0, 0, a.fatal(err)
	}

	params, err := apt.DecodeVelParams(reply.Payload)
	if err != nil {
		return 0, 0, a.fatal(err)
	}

	velocity = a.model.CountsToVelocity(params.MaxVelocity)
	acceleration = a.model.CountsToAcceleration(params.Acceleration)

	return velocity, acceleration, nil
}

// HomeSettings are the homing parameters of one axis in physical units.
type HomeSettings struct {
	Direction   uint16  // 1 forward, 2 reverse
	LimitSwitch uint16  // 1 hardware reverse, 4 hardware forward
	Velocity    float64 // homing velocity in unit/s
	Offset      float64 // distance from the limit switch to the zero position
}

// SetHomeParams sets the homing parameters. The homing velocity is
// validated against the model limits; the command has no response.
func (a *Axis) SetHomeParams(s HomeSettings) error {
	if s.Velocity <= 0 || s.Velocity > a.model.MaxVelocity {
		return fmt.Errorf("%w: homing velocity %.4f outside (0, %.4f] %s/s",
			ErrOutOfRange, s.Velocity, a.model.MaxVelocity, a.model.Unit)
	}
	if s.Offset < 0 {
		return fmt.Errorf("%w: homing offset %.4f must not be negative", ErrOutOfRange, s.Offset)
	}

	params := apt.HomeParams{
		Channel:     a.channel,
		Direction:   s.Direction,
		LimitSwitch: s.LimitSwitch,
		Velocity:    a.model.VelocityToCounts(s.Velocity),
		Offset:      a.model.PositionToCounts(s.Offset),
	}

	if err := a.conn.Write(apt.NewDataPacket(apt.SetHomeParams, a.dest, 0, params.Encode())); err != nil {
		return a.fatal(err)
	}

	return nil
}

// HomeParams reads back the homing parameters in physical units.
func (a *Axis) HomeParams() (HomeSettings, error) {
	req := apt.NewPacket(apt.ReqHomeParams, byte(a.channel), 0, a.dest, 0)

	reply, err := a.conn.RoundTrip(req, apt.GetHomeParams, a.dest)
	if err != nil {
		return HomeSettings{}, a.fatal(err)
	}

	params, err := apt.DecodeHomeParams(reply.Payload)
	if err != nil {
		return HomeSettings{}, a.fatal(err)
	}

	return HomeSettings{
		Direction:   params.Direction,
		LimitSwitch: params.LimitSwitch,
		Velocity:    a.model.CountsToVelocity(params.Velocity),
		Offset:      a.model.CountsToPosition(params.Offset),
	}, nil
}

// --- Channel and unit ---

// EnableChannel enables the drive channel of the axis. Already-enabled
// channels are left untouched, so the call is idempotent.
func (a *Axis) EnableChannel() error {
	req := apt.NewPacket(apt.ReqChanEnableState, byte(a.channel), 0, a.dest, 0)

	reply, err := a.conn.RoundTrip(req, apt.GetChanEnableState, a.dest)
	if err != nil {
		return a.fatal(err)
	}

	if reply.Param2 == chanEnabled {
		return nil
	}

	err = a.conn.Write(apt.NewPacket(apt.SetChanEnableState, byte(a.channel), chanEnabled, a.dest, 0))
	if err != nil {
		return a.fatal(err)
	}

	a.logger.Debug("motor: channel enabled", "dest", a.dest, "channel", a.channel)

	return nil
}

// Identify flashes the front-panel LED of the unit hosting the axis.
// Fire-and-forget; the command has no response.
func (a *Axis) Identify() error {
	if err := a.conn.Write(apt.NewPacket(apt.ModIdentify, byte(a.channel), 0, a.dest, 0)); err != nil {
		return a.fatal(err)
	}

	return nil
}

// HardwareInfo requests the hardware descriptor of the unit hosting the
// axis.
func (a *Axis) HardwareInfo() (apt.HardwareInfo, error) {
	req := apt.NewPacket(apt.HwReqInfo, 0, 0, a.dest, 0)

	reply, err := a.conn.RoundTrip(req, apt.HwGetInfo, a.dest)
	if err != nil {
		return apt.HardwareInfo{}, a.fatal(err)
	}

	info, err := apt.DecodeHardwareInfo(reply.Payload)
	if err != nil {
		return apt.HardwareInfo{}, a.fatal(err)
	}

	return info, nil
}

// --- Failure handling ---

// fatal classifies an operation failure. Link-integrity errors force the
// axis to Disconnected; anything else returns it to Idle.
func (a *Axis) fatal(err error) error {
	if isLinkFatal(err) {
		a.setState(StateDisconnected)
		a.logger.Error("motor: axis disconnected", "dest", a.dest, "error", err)

		return err
	}

	a.setState(StateIdle)

	return err
}

func isLinkFatal(err error) bool {
	return errors.Is(err, aptlink.ErrConnClosed) ||
		errors.Is(err, aptlink.ErrReadTimeout) ||
		errors.Is(err, apt.ErrIncompleteFrame) ||
		errors.Is(err, apt.ErrMalformedPacket)
}
