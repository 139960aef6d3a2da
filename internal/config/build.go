package config

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sweeney/pinscan/internal/clock"
	"github.com/sweeney/pinscan/internal/gpio"
	"github.com/sweeney/pinscan/internal/mqtt"
	"github.com/sweeney/pinscan/internal/pins"
	"github.com/sweeney/pinscan/internal/shift"
)

var (
	// ErrInvalidLayout is returned for layouts that cannot be built.
	ErrInvalidLayout = errors.New("invalid layout")
	// ErrUnknownReference is returned when a layout entry names an
	// element that does not exist.
	ErrUnknownReference = errors.New("unknown reference")
)

const setOutputPrefix = "set_output:"

// Options carries the collaborators actions are bound to.
type Options struct {
	// Publisher receives "publish" actions. Layouts using "publish"
	// fail to build when it is nil.
	Publisher mqtt.Publisher
	// Print receives "print" actions.
	Print io.Writer
	// DefaultDebounce applies to sensors without debounce_ms.
	DefaultDebounce clock.Millis
	Now             func() time.Time
	Log             zerolog.Logger
}

// Layout owns every element built from a File. Elements lists sensors
// first, then outputs, in file order; this is the scan order.
type Layout struct {
	Elements  []pins.Element
	Sensors   map[string]*pins.Sensor
	Outputs   map[string]*pins.Output
	Registers map[string]*shift.Register
}

// SensorList returns the sensors in scan order.
func (l *Layout) SensorList() []*pins.Sensor {
	var out []*pins.Sensor
	for _, e := range l.Elements {
		if s, ok := e.(*pins.Sensor); ok {
			out = append(out, s)
		}
	}
	return out
}

func newLayout() *Layout {
	return &Layout{
		Sensors:   make(map[string]*pins.Sensor),
		Outputs:   make(map[string]*pins.Output),
		Registers: make(map[string]*shift.Register),
	}
}

// BuildSensors configures only the sensor channels of file, with no
// actions bound. Output and shift register channels are left untouched.
func BuildSensors(hw gpio.IO, file *File, opts Options) (*Layout, error) {
	l := newLayout()
	if _, err := l.addSensors(hw, file, opts); err != nil {
		return nil, err
	}
	return l, nil
}

// Build configures every channel of the layout on hw and wires actions,
// mirrors and shift registers together.
func Build(hw gpio.IO, file *File, opts Options) (*Layout, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := newLayout()

	for _, rs := range file.ShiftRegisters {
		if rs.Name == "" {
			return nil, errors.Wrap(ErrInvalidLayout, "shift register without name")
		}
		if _, dup := l.Registers[rs.Name]; dup {
			return nil, errors.Wrapf(ErrInvalidLayout, "duplicate shift register %q", rs.Name)
		}
		reg, err := shift.New(hw, shift.Config{Data: rs.Data, Clock: rs.Clock, Latch: rs.Latch, Width: rs.Width})
		if err != nil {
			return nil, errors.Wrapf(err, "shift register %q", rs.Name)
		}
		l.Registers[rs.Name] = reg
	}

	sensors, err := l.addSensors(hw, file, opts)
	if err != nil {
		return nil, err
	}

	for _, entry := range file.Outputs {
		cfg := pins.OutputConfig{
			Name:    entry.Name,
			Channel: entry.Channel,
			Analog:  entry.Analog,
			Initial: entry.Initial,
		}
		if entry.Shift != "" {
			reg, ok := l.Registers[entry.Shift]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownReference, "output %q: shift register %q", entry.Name, entry.Shift)
			}
			if entry.Channel < 0 || entry.Channel >= reg.Width() {
				return nil, errors.Wrapf(ErrInvalidLayout, "output %q: bit %d outside register %q", entry.Name, entry.Channel, entry.Shift)
			}
			cfg.Shift = reg
		}
		if entry.Mirror != "" {
			src, ok := l.Sensors[entry.Mirror]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownReference, "output %q: sensor %q", entry.Name, entry.Mirror)
			}
			cfg.Source = src
		}
		o, err := pins.NewOutput(hw, cfg, opts.Log)
		if err != nil {
			return nil, err
		}
		if _, dup := l.Outputs[o.Name()]; dup {
			return nil, errors.Wrapf(ErrInvalidLayout, "duplicate output %q", o.Name())
		}
		l.Outputs[o.Name()] = o
		l.Elements = append(l.Elements, o)
	}

	// Initial values staged on shift registers only reach the pins here.
	for name, reg := range l.Registers {
		if err := reg.Commit(); err != nil {
			return nil, errors.Wrapf(err, "commit shift register %q", name)
		}
	}

	// Actions are bound last so set_output can name any output.
	for i, ss := range file.Sensors {
		s := sensors[i]
		action, err := l.bindActions(s.Name(), ss.Actions, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "sensor %q", s.Name())
		}
		s.SetAction(action)
	}
	return l, nil
}

// addSensors builds file's sensors in order and appends them to l.
func (l *Layout) addSensors(hw gpio.IO, file *File, opts Options) ([]*pins.Sensor, error) {
	var sensors []*pins.Sensor
	for _, ss := range file.Sensors {
		delay := clock.Millis(ss.DebounceMs)
		if delay == 0 {
			delay = opts.DefaultDebounce
		}
		s, err := pins.NewSensor(hw, pins.SensorConfig{
			Name:          ss.Name,
			Channel:       ss.Channel,
			Analog:        ss.Analog,
			PullUp:        ss.PullUp,
			Reversed:      ss.Reversed,
			DebounceDelay: delay,
		}, opts.Log)
		if err != nil {
			return nil, err
		}
		if _, dup := l.Sensors[s.Name()]; dup {
			return nil, errors.Wrapf(ErrInvalidLayout, "duplicate sensor %q", s.Name())
		}
		l.Sensors[s.Name()] = s
		l.Elements = append(l.Elements, s)
		sensors = append(sensors, s)
	}
	return sensors, nil
}

func (l *Layout) bindActions(sensor string, names []string, opts Options) (pins.Action, error) {
	var actions []pins.Action
	for _, name := range names {
		switch {
		case name == "print":
			if opts.Print == nil {
				return nil, errors.Wrap(ErrInvalidLayout, "print action without output writer")
			}
			actions = append(actions, pins.ActionPrintValue(opts.Print))
		case name == "publish":
			if opts.Publisher == nil {
				return nil, errors.Wrap(ErrInvalidLayout, "publish action without mqtt broker")
			}
			actions = append(actions, mqtt.PublishAction(opts.Publisher, sensor, opts.Now, opts.Log))
		case strings.HasPrefix(name, setOutputPrefix):
			target := strings.TrimPrefix(name, setOutputPrefix)
			out, ok := l.Outputs[target]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownReference, "output %q", target)
			}
			actions = append(actions, pins.ActionSetOutput(out))
		default:
			return nil, errors.Wrapf(ErrInvalidLayout, "unknown action %q", name)
		}
	}
	return pins.Chain(actions...), nil
}
