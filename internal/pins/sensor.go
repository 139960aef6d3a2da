package pins

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sweeney/pinscan/internal/clock"
	"github.com/sweeney/pinscan/internal/gpio"
)

// DefaultDebounceDelay is used when SensorConfig.DebounceDelay is zero.
const DefaultDebounceDelay clock.Millis = 50

// SensorConfig describes a Sensor.
type SensorConfig struct {
	// Name labels log lines and metrics. Defaults to "in<channel>".
	Name     string
	Channel  int
	Analog   bool
	PullUp   bool // enable the channel's pull-up bias
	Reversed bool // invert every sample

	// DebounceDelay is how long a new reading must stay stable before
	// it is accepted.
	DebounceDelay clock.Millis

	// Action, if set, is called once for every confirmed transition.
	Action Action
}

// Sensor is a debounced input channel.
type Sensor struct {
	Pin

	io       gpio.IO
	name     string
	log      zerolog.Logger
	pullUp   bool
	reversed bool
	action   Action

	// current is the last debounce-accepted reading,
	// previous the last sample taken by DebouncedRead.
	current   uint
	previous  uint
	changedAt clock.Millis
	delay     clock.Millis

	// lastRaw is the value CheckSensors saw on its last raw pass.
	lastRaw uint
	// lastSample is the last successful Read, returned when a read fails.
	lastSample uint

	transitions int
}

// NewSensor configures the channel as an input and seeds the debounce
// state with an initial sample, so the state the sensor starts in never
// fires the action.
func NewSensor(io gpio.IO, cfg SensorConfig, log zerolog.Logger) (*Sensor, error) {
	if err := io.ConfigureInput(cfg.Channel, cfg.Analog, cfg.PullUp); err != nil {
		return nil, errors.Wrapf(err, "configure sensor channel %d", cfg.Channel)
	}
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("in%d", cfg.Channel)
	}
	delay := cfg.DebounceDelay
	if delay == 0 {
		delay = DefaultDebounceDelay
	}
	s := &Sensor{
		Pin:      Pin{channel: cfg.Channel, analog: cfg.Analog, role: RoleSensor},
		io:       io,
		name:     name,
		log:      log.With().Str("sensor", name).Int("channel", cfg.Channel).Logger(),
		pullUp:   cfg.PullUp,
		reversed: cfg.Reversed,
		action:   cfg.Action,
		delay:    delay,
	}
	initial := s.Read()
	s.current = initial
	s.previous = initial
	s.lastRaw = initial
	sensorStateGauge.WithLabelValues(name).Set(float64(initial))
	return s, nil
}

// Name returns the sensor name.
func (s *Sensor) Name() string { return s.name }

// PullUp reports whether the pull-up bias was requested.
func (s *Sensor) PullUp() bool { return s.pullUp }

// Reversed reports whether samples are inverted.
func (s *Sensor) Reversed() bool { return s.reversed }

// State returns the current debounced value.
func (s *Sensor) State() uint { return s.current }

// Previous returns the last sample taken by DebouncedRead.
func (s *Sensor) Previous() uint { return s.previous }

// DebounceDelay returns the stability window.
func (s *Sensor) DebounceDelay() clock.Millis { return s.delay }

// Deadline returns the time at which a pending change may be accepted.
func (s *Sensor) Deadline() clock.Millis { return s.changedAt + s.delay }

// Pending reports whether a change has been seen but not yet accepted.
func (s *Sensor) Pending() bool { return s.previous != s.current }

// Transitions returns the number of confirmed transitions.
func (s *Sensor) Transitions() int { return s.transitions }

// SetAction replaces the transition action. nil disables notification.
func (s *Sensor) SetAction(a Action) { s.action = a }

// Read returns the instantaneous sample, inverted when the sensor is
// reversed. Digital samples are 0 or 1; analog samples are in
// [0, gpio.AnalogMax]. It does not touch the debounce state.
// A failed read is logged and returns the last successful sample.
func (s *Sensor) Read() uint {
	var v int
	var err error
	if s.analog {
		v, err = s.io.AnalogRead(s.channel)
	} else {
		v, err = s.io.DigitalRead(s.channel)
	}
	if err != nil {
		s.log.Debug().Err(err).Msg("read failed")
		ioErrorsTotal.WithLabelValues(s.name, "read").Inc()
		return s.lastSample
	}
	s.lastSample = s.normalize(v)
	return s.lastSample
}

func (s *Sensor) normalize(v int) uint {
	if !s.analog {
		if v != 0 {
			v = gpio.High
		}
		if s.reversed {
			return uint(gpio.High - v)
		}
		return uint(v)
	}
	if v < 0 {
		v = 0
	} else if v > gpio.AnalogMax {
		v = gpio.AnalogMax
	}
	if s.reversed {
		return uint(gpio.AnalogMax - v)
	}
	return uint(v)
}

// DebouncedRead takes a sample and advances the debounce state machine.
//
// A sample that differs from the previous one restarts the stability
// window. A sample that matches the previous one, once the window has
// elapsed, is accepted as the new state if it differs from the current
// state; the action then runs before DebouncedRead returns.
func (s *Sensor) DebouncedRead(clk clock.Clock) uint {
	raw := s.Read()
	now := clk.Now()

	if raw != s.previous {
		s.previous = raw
		s.changedAt = now
		return s.current
	}

	if s.previous != s.current && clock.Since(now, s.changedAt) >= s.delay {
		s.current = s.previous
		s.transitions++
		sensorTransitionsTotal.WithLabelValues(s.name).Inc()
		sensorStateGauge.WithLabelValues(s.name).Set(float64(s.current))
		s.log.Debug().Uint("value", s.current).Msg("transition")
		if s.action != nil {
			s.action(s.channel, s.current)
		}
	}
	return s.current
}
