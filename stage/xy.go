package stage

import (
	"fmt"
	"sync"

	"github.com/OMS-lab/go-apt/apt"
	"github.com/OMS-lab/go-apt/aptlink"
	"github.com/OMS-lab/go-apt/logger"
	"github.com/OMS-lab/go-apt/motor"
)

// XYStage coordinates two axes sharing one connection.
//
// Combined operations take either one value, broadcast to both axes, or
// two values applied as x then y. A mutex serializes all axis operations:
// the transport is an exclusive resource, and interleaving frames of the
// two axes mid-conversation would corrupt reply matching.
type XYStage struct {
	mu     sync.Mutex
	conn   *aptlink.Connection
	x, y   *motor.Axis
	logger logger.Logger

	velocity     [2]float64
	acceleration [2]float64
	connected    bool
}

// NewXYStage builds the default assembly: two MLS203 axes on the first
// two bays of the controller.
func NewXYStage(conn *aptlink.Connection) (*XYStage, error) {
	if conn == nil {
		return nil, ErrConnNil
	}

	x, err := motor.NewAxis(conn, motor.MLS203, motor.WithDestination(aptlink.Bay1Address))
	if err != nil {
		return nil, err
	}

	y, err := motor.NewAxis(conn, motor.MLS203, motor.WithDestination(aptlink.Bay2Address))
	if err != nil {
		return nil, err
	}

	return NewXYStageFromAxes(conn, x, y)
}

// NewXYStageFromAxes builds an assembly from two prebuilt axes sharing
// conn. The axes must have distinct destination addresses.
func NewXYStageFromAxes(conn *aptlink.Connection, x, y *motor.Axis) (*XYStage, error) {
	if conn == nil {
		return nil, ErrConnNil
	}
	if x == nil || y == nil {
		return nil, ErrAxisNil
	}
	if x.Destination() == y.Destination() {
		return nil, fmt.Errorf("stage: x and y share destination 0x%02X", x.Destination())
	}

	return &XYStage{
		conn:   conn,
		x:      x,
		y:      y,
		logger: logger.GetLogger(),
	}, nil
}

// X returns the x axis for direct access. Direct calls must not run
// concurrently with stage operations.
func (s *XYStage) X() *motor.Axis { return s.x }

// Y returns the y axis.
func (s *XYStage) Y() *motor.Axis { return s.y }

// Connect prepares both axes for motion: it enables the drive channels,
// homes any axis that does not report homed (x first, then y) and caches
// the velocity parameters for the combined setters.
func (s *XYStage) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, axis := range s.axes() {
		// Session-open courtesy: suppresses the controller's flash
		// programming mode for the duration of the link.
		pkt := apt.NewPacket(apt.HwNoFlashProgramming, 0, 0, axis.Destination(), 0)
		if err := s.conn.Write(pkt); err != nil {
			return err
		}
	}

	for _, axis := range s.axes() {
		if err := axis.EnableChannel(); err != nil {
			return err
		}
	}

	for _, axis := range s.axes() {
		if err := axis.Home(false); err != nil {
			return err
		}
	}

	for i, axis := range s.axes() {
		vel, accel, err := axis.VelocityParams()
		if err != nil {
			return err
		}

		s.velocity[i] = vel
		s.acceleration[i] = accel
	}

	s.connected = true
	s.logger.Info("stage: xy connected",
		"x", fmt.Sprintf("0x%02X", s.x.Destination()),
		"y", fmt.Sprintf("0x%02X", s.y.Destination()),
	)

	return nil
}

// Home homes both axes, x first. force re-homes axes that already report
// homed.
func (s *XYStage) Home(force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}

	for _, axis := range s.axes() {
		if err := axis.Home(force); err != nil {
			return err
		}
	}

	return nil
}

// MoveTo moves the stage to the given position: one value moves both axes
// to the same coordinate, two values are the x and y targets.
func (s *XYStage) MoveTo(xy ...float64) error {
	targets, err := pair(xy)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}

	if err := s.x.MoveAbsolute(targets[0]); err != nil {
		return err
	}

	return s.y.MoveAbsolute(targets[1])
}

// Position returns the x and y positions.
func (s *XYStage) Position() ([2]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return [2]float64{}, ErrNotConnected
	}

	var pos [2]float64

	for i, axis := range s.axes() {
		p, err := axis.Position()
		if err != nil {
			return [2]float64{}, err
		}
		pos[i] = p
	}

	return pos, nil
}

// SetVelocity sets the maximum velocity of both axes, keeping each axis's
// cached acceleration. One value is broadcast; two are applied per axis.
func (s *XYStage) SetVelocity(v ...float64) error {
	vals, err := pair(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}

	for i, axis := range s.axes() {
		if err := axis.SetVelocityParams(vals[i], s.acceleration[i]); err != nil {
			return err
		}
		s.velocity[i] = vals[i]
	}

	return nil
}

// SetAcceleration sets the acceleration of both axes, keeping each axis's
// cached velocity. One value is broadcast; two are applied per axis.
func (s *XYStage) SetAcceleration(a ...float64) error {
	vals, err := pair(a)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}

	for i, axis := range s.axes() {
		if err := axis.SetVelocityParams(s.velocity[i], vals[i]); err != nil {
			return err
		}
		s.acceleration[i] = vals[i]
	}

	return nil
}

// Velocity returns the cached maximum velocities of the two axes.
func (s *XYStage) Velocity() [2]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.velocity
}

// Acceleration returns the cached accelerations of the two axes.
func (s *XYStage) Acceleration() [2]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.acceleration
}

func (s *XYStage) axes() [2]*motor.Axis {
	return [2]*motor.Axis{s.x, s.y}
}

// pair expands combined-operation arguments: one value is shared by both
// axes, two are taken as x and y.
func pair(vals []float64) ([2]float64, error) {
	switch len(vals) {
	case 1:
		return [2]float64{vals[0], vals[0]}, nil
	case 2:
		return [2]float64{vals[0], vals[1]}, nil
	default:
		return [2]float64{}, fmt.Errorf("stage: want one shared value or one per axis, got %d", len(vals))
	}
}
