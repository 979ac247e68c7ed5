package stage

import (
	"github.com/OMS-lab/go-apt/aptlink"
	"github.com/OMS-lab/go-apt/motor"
)

// StepperStage is a DRV014 stepper actuator on a BSC-series controller.
type StepperStage struct {
	SingleAxisStage
}

// NewStepperStage builds a stepper stage with the DRV014 defaults.
// Axis options override the destination address or motion parameters.
func NewStepperStage(conn *aptlink.Connection, opts ...motor.AxisOption) (*StepperStage, error) {
	if conn == nil {
		return nil, ErrConnNil
	}

	axis, err := motor.NewAxis(conn, motor.DRV014, opts...)
	if err != nil {
		return nil, err
	}

	return &StepperStage{newSingleAxisStage(conn, axis)}, nil
}
