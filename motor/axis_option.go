package motor

import (
	"errors"
	"fmt"

	"github.com/OMS-lab/go-apt/logger"
)

// AxisOption is a functional option for configuring an Axis.
type AxisOption interface {
	apply(*Axis) error
}

type axisOptFunc func(*Axis) error

func (f axisOptFunc) apply(a *Axis) error { return f(a) }

// WithDestination sets the device address of the axis. Standalone USB
// units use aptlink.GenericUSBAddress; bay controllers address each card
// slot separately.
func WithDestination(addr byte) AxisOption {
	return axisOptFunc(func(a *Axis) error {
		if addr == 0 {
			return errors.New("motor: destination address must not be zero")
		}
		a.dest = addr

		return nil
	})
}

// WithChannel sets the drive channel on multi-channel units. Channels are
// numbered from 1.
func WithChannel(ch uint16) AxisOption {
	return axisOptFunc(func(a *Axis) error {
		if ch < 1 || ch > 0xFF {
			return fmt.Errorf("motor: channel %d out of range [1, 255]", ch)
		}
		a.channel = ch

		return nil
	})
}

// WithSoftLimits narrows the permitted position range, in absolute stage
// coordinates. The range must lie within the model travel.
func WithSoftLimits(minPos, maxPos float64) AxisOption {
	return axisOptFunc(func(a *Axis) error {
		if minPos >= maxPos {
			return fmt.Errorf("motor: soft limits [%g, %g] are empty", minPos, maxPos)
		}
		if minPos < a.model.TravelMin || maxPos > a.model.TravelMax {
			return fmt.Errorf("motor: soft limits [%g, %g] exceed %s travel [%g, %g]",
				minPos, maxPos, a.model.Name, a.model.TravelMin, a.model.TravelMax)
		}
		a.limitMin = minPos
		a.limitMax = maxPos

		return nil
	})
}

// WithBacklash sets the compensation distance applied on direction
// reversal. Zero disables compensation.
func WithBacklash(d float64) AxisOption {
	return axisOptFunc(func(a *Axis) error {
		if d < 0 {
			return fmt.Errorf("motor: backlash %g must not be negative", d)
		}
		a.backlash = d

		return nil
	})
}

// WithMinMove sets the minimum-move cutoff below which a move request is
// a no-op.
func WithMinMove(d float64) AxisOption {
	return axisOptFunc(func(a *Axis) error {
		if d < 0 {
			return fmt.Errorf("motor: min-move %g must not be negative", d)
		}
		a.minMove = d

		return nil
	})
}

// WithZeroOffset sets the initial reference point, in absolute stage
// coordinates.
func WithZeroOffset(offset float64) AxisOption {
	return axisOptFunc(func(a *Axis) error {
		a.zeroOffset = offset

		return nil
	})
}

// WithLogger sets the logger for the axis.
func WithLogger(l logger.Logger) AxisOption {
	return axisOptFunc(func(a *Axis) error {
		if l == nil {
			return errors.New("motor: logger must not be nil")
		}
		a.logger = l

		return nil
	})
}
