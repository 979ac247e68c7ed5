package stage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OMS-lab/go-apt/aptlink"
	"github.com/OMS-lab/go-apt/motor"
)

// Profile describes a stage assembly in YAML: the serial device and one
// entry per axis.
//
//	port: /dev/ttyUSB0
//	baud_rate: 115200
//	axes:
//	  - model: MLS203
//	    destination: 0x21
//	  - model: MLS203
//	    destination: 0x22
//	    soft_limits: {min: 5, max: 100}
type Profile struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Axes     []AxisProfile `yaml:"axes"`
}

// AxisProfile describes one axis. Optional fields default to the model
// values.
type AxisProfile struct {
	Model       string      `yaml:"model"`
	Destination byte        `yaml:"destination"`
	Channel     uint16      `yaml:"channel"`
	SoftLimits  *LimitsSpec `yaml:"soft_limits"`
	Backlash    *float64    `yaml:"backlash"`
	MinMove     *float64    `yaml:"min_move"`
	ZeroOffset  *float64    `yaml:"zero_offset"`
}

// LimitsSpec is a position range in physical units.
type LimitsSpec struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// modelsByName maps profile model names to device constants.
var modelsByName = map[string]motor.Model{
	"MLS203": motor.MLS203,
	"PRM1Z8": motor.PRM1Z8,
	"DRV014": motor.DRV014,
}

// LoadProfile reads and validates a YAML stage profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stage: read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("stage: parse profile: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Validate checks the profile for usability. It does not mutate the
// profile.
func (p *Profile) Validate() error {
	if p.Port == "" {
		return fmt.Errorf("stage: profile has no serial port")
	}
	if p.BaudRate < 0 {
		return fmt.Errorf("stage: baud rate %d must not be negative", p.BaudRate)
	}
	if len(p.Axes) == 0 {
		return fmt.Errorf("stage: profile has no axes")
	}

	seen := make(map[byte]int)

	for i, ax := range p.Axes {
		if _, ok := modelsByName[ax.Model]; !ok {
			return fmt.Errorf("%w: axis %d model %q", ErrUnknownModel, i, ax.Model)
		}
		if ax.Destination == 0 {
			return fmt.Errorf("stage: axis %d has no destination address", i)
		}
		if prev, dup := seen[ax.Destination]; dup {
			return fmt.Errorf("stage: axes %d and %d share destination 0x%02X", prev, i, ax.Destination)
		}
		seen[ax.Destination] = i

		if ax.SoftLimits != nil && ax.SoftLimits.Min >= ax.SoftLimits.Max {
			return fmt.Errorf("stage: axis %d soft limits [%g, %g] are empty",
				i, ax.SoftLimits.Min, ax.SoftLimits.Max)
		}
	}

	return nil
}

// Dial opens the serial port named by the profile and wraps it in a
// connection. Extra options are applied after the profile settings.
func (p *Profile) Dial(opts ...aptlink.ConnOption) (*aptlink.Connection, error) {
	all := make([]aptlink.ConnOption, 0, len(opts)+1)
	if p.BaudRate > 0 {
		all = append(all, aptlink.WithBaudRate(p.BaudRate))
	}
	all = append(all, opts...)

	cfg, err := aptlink.NewConnectionConfig(p.Port, all...)
	if err != nil {
		return nil, err
	}

	return aptlink.Dial(cfg)
}

// BuildAxes constructs every axis in the profile over conn, in profile
// order.
func (p *Profile) BuildAxes(conn *aptlink.Connection) ([]*motor.Axis, error) {
	axes := make([]*motor.Axis, 0, len(p.Axes))

	for i, ap := range p.Axes {
		axis, err := ap.build(conn)
		if err != nil {
			return nil, fmt.Errorf("stage: axis %d: %w", i, err)
		}
		axes = append(axes, axis)
	}

	return axes, nil
}

// BuildXY constructs an XY assembly from a two-axis profile: the first
// entry is x, the second is y.
func (p *Profile) BuildXY(conn *aptlink.Connection) (*XYStage, error) {
	if len(p.Axes) != 2 {
		return nil, fmt.Errorf("stage: xy profile needs exactly 2 axes, got %d", len(p.Axes))
	}

	axes, err := p.BuildAxes(conn)
	if err != nil {
		return nil, err
	}

	return NewXYStageFromAxes(conn, axes[0], axes[1])
}

func (ap AxisProfile) build(conn *aptlink.Connection) (*motor.Axis, error) {
	model, ok := modelsByName[ap.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, ap.Model)
	}

	opts := []motor.AxisOption{motor.WithDestination(ap.Destination)}
	if ap.Channel > 0 {
		opts = append(opts, motor.WithChannel(ap.Channel))
	}
	if ap.SoftLimits != nil {
		opts = append(opts, motor.WithSoftLimits(ap.SoftLimits.Min, ap.SoftLimits.Max))
	}
	if ap.Backlash != nil {
		opts = append(opts, motor.WithBacklash(*ap.Backlash))
	}
	if ap.MinMove != nil {
		opts = append(opts, motor.WithMinMove(*ap.MinMove))
	}
	if ap.ZeroOffset != nil {
		opts = append(opts, motor.WithZeroOffset(*ap.ZeroOffset))
	}

	return motor.NewAxis(conn, model, opts...)
}
