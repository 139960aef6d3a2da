package pins

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sweeney/pinscan/internal/gpio"
)

// ShiftDevice is a serial output device with a staged bit buffer,
// such as a shift.Register. Several Outputs may share one device.
type ShiftDevice interface {
	// StageBit sets the bit at position in the staged buffer.
	StageBit(position int, on bool)
	// Commit pushes the staged buffer to the physical outputs.
	Commit() error
}

// OutputConfig describes an Output.
type OutputConfig struct {
	// Name labels log lines and metrics. Defaults to "out<channel>".
	Name    string
	Channel int // bit position when Shift is set
	Analog  bool
	Initial byte

	// Shift, if set, receives the value instead of the channel.
	Shift ShiftDevice

	// Source, if set, is mirrored onto the output on every Trigger.
	Source *Sensor
}

// Output is a latched output channel with a two phase protocol:
// SetValue stages a value, Trigger commits and writes it.
type Output struct {
	Pin

	io     gpio.IO
	name   string
	log    zerolog.Logger
	shift  ShiftDevice
	source *Sensor

	value byte // committed and written
	next  byte // staged by SetValue
}

// NewOutput configures the channel as an output (unless it lives on a
// shift device) and writes the initial value.
func NewOutput(io gpio.IO, cfg OutputConfig, log zerolog.Logger) (*Output, error) {
	if cfg.Shift == nil {
		if err := io.ConfigureOutput(cfg.Channel, cfg.Analog); err != nil {
			return nil, errors.Wrapf(err, "configure output channel %d", cfg.Channel)
		}
	}
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("out%d", cfg.Channel)
	}
	o := &Output{
		Pin:    Pin{channel: cfg.Channel, analog: cfg.Analog, role: RoleOutput},
		io:     io,
		name:   name,
		log:    log.With().Str("output", name).Int("channel", cfg.Channel).Logger(),
		shift:  cfg.Shift,
		source: cfg.Source,
		value:  cfg.Initial,
		next:   cfg.Initial,
	}
	o.write()
	return o, nil
}

// Name returns the output name.
func (o *Output) Name() string { return o.name }

// Value returns the committed value.
func (o *Output) Value() byte { return o.value }

// Pending returns the staged value.
func (o *Output) Pending() byte { return o.next }

// Shift returns the shift device, or nil.
func (o *Output) Shift() ShiftDevice { return o.shift }

// Source returns the mirrored sensor, or nil.
func (o *Output) Source() *Sensor { return o.source }

// SetValue stages value for the next Trigger. It never touches hardware.
func (o *Output) SetValue(value byte) {
	o.next = value
}

// Trigger commits the staged value and writes it, directly or into the
// shift device's staged buffer. When a source sensor is configured its
// debounced state is staged first and overrides any SetValue.
// Every call writes, even if the value did not change.
func (o *Output) Trigger() {
	if o.source != nil {
		v := o.source.State()
		if o.source.Analog() {
			// 10 bit sample to 8 bit level
			v >>= 2
		}
		o.SetValue(clampByte(v))
	}
	o.value = o.next
	o.write()
	outputTriggersTotal.WithLabelValues(o.name).Inc()
}

func (o *Output) write() {
	outputValueGauge.WithLabelValues(o.name).Set(float64(o.value))
	if o.shift != nil {
		o.shift.StageBit(o.channel, o.value != 0)
		return
	}
	var err error
	if o.analog {
		err = o.io.AnalogWrite(o.channel, int(o.value))
	} else {
		err = o.io.DigitalWrite(o.channel, int(o.value))
	}
	if err != nil {
		o.log.Debug().Err(err).Uint8("value", o.value).Msg("write failed")
		ioErrorsTotal.WithLabelValues(o.name, "write").Inc()
	}
}

func clampByte(v uint) byte {
	if v > 0xff {
		return 0xff
	}
	return byte(v)
}
