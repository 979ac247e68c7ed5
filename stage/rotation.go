package stage

import (
	"math"

	"github.com/OMS-lab/go-apt/aptlink"
	"github.com/OMS-lab/go-apt/motor"
)

// RotationStage is a PRM1-Z8 rotation mount on a standalone USB
// controller.
type RotationStage struct {
	SingleAxisStage
}

// NewRotationStage builds a rotation stage with the PRM1Z8 defaults.
// Axis options override the destination address or motion parameters.
func NewRotationStage(conn *aptlink.Connection, opts ...motor.AxisOption) (*RotationStage, error) {
	if conn == nil {
		return nil, ErrConnNil
	}

	axis, err := motor.NewAxis(conn, motor.PRM1Z8, opts...)
	if err != nil {
		return nil, err
	}

	return &RotationStage{newSingleAxisStage(conn, axis)}, nil
}

// MoveToAngle moves to the given angle normalized into [0, 360), so
// callers may pass accumulated or negative angles.
func (s *RotationStage) MoveToAngle(angle float64) error {
	return s.MoveTo(normalizeAngle(angle))
}

// normalizeAngle wraps an angle into [0, 360).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}

	return a
}
