package motor

import (
	"fmt"
	"math"
)

// Model holds the immutable constants of one device type. All scale
// constants map physical units (the Unit field) to the device's integer
// encoder representation; the encode/decode shape is uniform across
// devices, only the constants differ.
type Model struct {
	Name string
	Unit string // physical unit, "mm" or "deg"

	// EncoderScale converts physical units to encoder counts.
	EncoderScale float64

	// VelocityScale and AccelScale convert unit/s and unit/s^2 to the
	// encoder velocity and acceleration counts used by velocity and homing
	// parameters.
	VelocityScale float64
	AccelScale    float64

	// StatusVelocityScale converts the 16-bit velocity field of a status
	// update to unit/s. Status updates use a coarser representation than
	// velocity parameters, with a controller-family-specific constant.
	StatusVelocityScale float64

	// TravelMin and TravelMax bound the mechanical travel. They are the
	// default soft limits of an axis built on this model.
	TravelMin float64
	TravelMax float64

	// MaxVelocity and MaxAccel bound the velocity-parameter operations.
	MaxVelocity float64
	MaxAccel    float64

	// Backlash is the default compensation distance applied on direction
	// reversal; zero disables compensation.
	Backlash float64

	// MinMove is the default minimum-move cutoff below which a move
	// request is a no-op.
	MinMove float64
}

// Predefined device models.
var (
	// MLS203 is one axis of the MLS203 XY microscopy stage driven by a
	// BBD-series bay controller. Direct-drive brushless, so no backlash
	// compensation by default.
	MLS203 = Model{
		Name:                "MLS203",
		Unit:                "mm",
		EncoderScale:        20000,
		VelocityScale:       134217.73,
		AccelScale:          13.744,
		StatusVelocityScale: 204.8,
		TravelMin:           0,
		TravelMax:           110,
		MaxVelocity:         250,
		MaxAccel:            2000,
		Backlash:            0,
		MinMove:             0.001,
	}

	// PRM1Z8 is the PRM1-Z8 motorized rotation stage on a TDC001 cube
	// controller. Worm drive, so direction reversals compensate backlash.
	PRM1Z8 = Model{
		Name:                "PRM1Z8",
		Unit:                "deg",
		EncoderScale:        1919.64,
		VelocityScale:       42941.66,
		AccelScale:          14.66,
		StatusVelocityScale: 2.048,
		TravelMin:           0,
		TravelMax:           360,
		MaxVelocity:         25,
		MaxAccel:            25,
		Backlash:            0.1,
		MinMove:             0.005,
	}

	// DRV014 is the DRV014 stepper actuator on a BSC-series controller.
	DRV014 = Model{
		Name:                "DRV014",
		Unit:                "mm",
		EncoderScale:        409600,
		VelocityScale:       21987328,
		AccelScale:          4506,
		StatusVelocityScale: 204.8,
		TravelMin:           0,
		TravelMax:           50,
		MaxVelocity:         2.3,
		MaxAccel:            4.5,
		Backlash:            0.008,
		MinMove:             0.0005,
	}
)

// validate rejects models whose constants cannot drive the conversions.
func (m Model) validate() error {
	if m.EncoderScale <= 0 || m.VelocityScale <= 0 || m.AccelScale <= 0 {
		return fmt.Errorf("%w: %q scale constants must be positive", ErrInvalidModel, m.Name)
	}
	if m.TravelMax <= m.TravelMin {
		return fmt.Errorf("%w: %q travel range [%g, %g]", ErrInvalidModel, m.Name, m.TravelMin, m.TravelMax)
	}
	if m.MaxVelocity <= 0 || m.MaxAccel <= 0 {
		return fmt.Errorf("%w: %q velocity and acceleration limits must be positive", ErrInvalidModel, m.Name)
	}
	if m.Backlash < 0 || m.MinMove < 0 {
		return fmt.Errorf("%w: %q backlash and min-move must not be negative", ErrInvalidModel, m.Name)
	}

	return nil
}

// PositionToCounts converts a physical position to encoder counts,
// rounding half away from zero.
func (m Model) PositionToCounts(units float64) int32 {
	return int32(math.Round(units * m.EncoderScale))
}

// CountsToPosition converts encoder counts to physical units.
func (m Model) CountsToPosition(counts int32) float64 {
	return float64(counts) / m.EncoderScale
}

// VelocityToCounts converts unit/s to encoder velocity counts.
func (m Model) VelocityToCounts(v float64) int32 {
	return int32(math.Round(v * m.VelocityScale))
}

// CountsToVelocity converts encoder velocity counts to unit/s.
func (m Model) CountsToVelocity(counts int32) float64 {
	return float64(counts) / m.VelocityScale
}

// AccelerationToCounts converts unit/s^2 to encoder acceleration counts.
func (m Model) AccelerationToCounts(a float64) int32 {
	return int32(math.Round(a * m.AccelScale))
}

// CountsToAcceleration converts encoder acceleration counts to unit/s^2.
func (m Model) CountsToAcceleration(counts int32) float64 {
	return float64(counts) / m.AccelScale
}

// StatusVelocity converts the 16-bit velocity field of a status update to
// unit/s. Models without a status velocity scale report zero.
func (m Model) StatusVelocity(raw uint16) float64 {
	if m.StatusVelocityScale == 0 {
		return 0
	}

	return float64(raw) / m.StatusVelocityScale
}
