package stage

import (
	"github.com/OMS-lab/go-apt/apt"
	"github.com/OMS-lab/go-apt/aptlink"
	"github.com/OMS-lab/go-apt/motor"
)

// SingleAxisStage is the common behavior of one-axis assemblies. Device
// wrappers embed it and add defaults only.
//
// A SingleAxisStage is NOT goroutine-safe: it owns its connection
// exclusively and expects one caller at a time.
type SingleAxisStage struct {
	conn *aptlink.Connection
	axis *motor.Axis

	velocity     float64
	acceleration float64
	connected    bool
}

func newSingleAxisStage(conn *aptlink.Connection, axis *motor.Axis) SingleAxisStage {
	return SingleAxisStage{conn: conn, axis: axis}
}

// Axis returns the underlying axis for direct access.
func (s *SingleAxisStage) Axis() *motor.Axis { return s.axis }

// Connect prepares the axis for motion: it enables the drive channel,
// homes the axis if it does not report homed and caches the velocity
// parameters.
func (s *SingleAxisStage) Connect() error {
	pkt := apt.NewPacket(apt.HwNoFlashProgramming, 0, 0, s.axis.Destination(), 0)
	if err := s.conn.Write(pkt); err != nil {
		return err
	}

	if err := s.axis.EnableChannel(); err != nil {
		return err
	}

	if err := s.axis.Home(false); err != nil {
		return err
	}

	vel, accel, err := s.axis.VelocityParams()
	if err != nil {
		return err
	}

	s.velocity = vel
	s.acceleration = accel
	s.connected = true

	return nil
}

// Home homes the axis. force re-homes even when the axis already reports
// homed.
func (s *SingleAxisStage) Home(force bool) error {
	if !s.connected {
		return ErrNotConnected
	}

	return s.axis.Home(force)
}

// MoveTo moves the axis to the given position and blocks until the move
// completes.
func (s *SingleAxisStage) MoveTo(pos float64) error {
	if !s.connected {
		return ErrNotConnected
	}

	return s.axis.MoveAbsolute(pos)
}

// Position returns the current position.
func (s *SingleAxisStage) Position() (float64, error) {
	if !s.connected {
		return 0, ErrNotConnected
	}

	return s.axis.Position()
}

// SetVelocity sets the maximum velocity, keeping the cached acceleration.
func (s *SingleAxisStage) SetVelocity(v float64) error {
	if !s.connected {
		return ErrNotConnected
	}

	if err := s.axis.SetVelocityParams(v, s.acceleration); err != nil {
		return err
	}
	s.velocity = v

	return nil
}

// SetAcceleration sets the acceleration, keeping the cached velocity.
func (s *SingleAxisStage) SetAcceleration(a float64) error {
	if !s.connected {
		return ErrNotConnected
	}

	if err := s.axis.SetVelocityParams(s.velocity, a); err != nil {
		return err
	}
	s.acceleration = a

	return nil
}

// Velocity returns the cached maximum velocity.
func (s *SingleAxisStage) Velocity() float64 { return s.velocity }

// Acceleration returns the cached acceleration.
func (s *SingleAxisStage) Acceleration() float64 { return s.acceleration }
