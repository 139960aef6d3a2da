package gpio

import (
	"fmt"

	"github.com/pkg/errors"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphIO drives channels through periph.io. Channels are addressed by
// number and looked up as "GPIO<n>" in the periph pin registry.
type PeriphIO struct {
	lookup func(name string) pgpio.PinIO
	pins   map[int]pgpio.PinIO
}

// NewPeriphIO initialises the periph host drivers.
func NewPeriphIO() (*PeriphIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "init periph host")
	}
	return newPeriphIO(gpioreg.ByName), nil
}

func newPeriphIO(lookup func(name string) pgpio.PinIO) *PeriphIO {
	return &PeriphIO{
		lookup: lookup,
		pins:   make(map[int]pgpio.PinIO),
	}
}

func (p *PeriphIO) resolve(channel int) (pgpio.PinIO, error) {
	if pin, ok := p.pins[channel]; ok {
		return pin, nil
	}
	name := fmt.Sprintf("GPIO%d", channel)
	pin := p.lookup(name)
	if pin == nil {
		return nil, errors.Errorf("periph pin %s not found", name)
	}
	p.pins[channel] = pin
	return pin, nil
}

// ConfigureInput sets channel as input with pull-up or floating bias.
func (p *PeriphIO) ConfigureInput(channel int, analog, pullUp bool) error {
	if analog {
		return ErrAnalogUnsupported
	}
	pin, err := p.resolve(channel)
	if err != nil {
		return err
	}
	pull := pgpio.Float
	if pullUp {
		pull = pgpio.PullUp
	}
	if err := pin.In(pull, pgpio.NoEdge); err != nil {
		return errors.Wrapf(err, "configure %s as input", pin)
	}
	return nil
}

// ConfigureOutput sets channel as output, initially low.
func (p *PeriphIO) ConfigureOutput(channel int, analog bool) error {
	if analog {
		return ErrAnalogUnsupported
	}
	pin, err := p.resolve(channel)
	if err != nil {
		return err
	}
	if err := pin.Out(pgpio.Low); err != nil {
		return errors.Wrapf(err, "configure %s as output", pin)
	}
	return nil
}

// DigitalRead reads the pin level.
func (p *PeriphIO) DigitalRead(channel int) (int, error) {
	pin, ok := p.pins[channel]
	if !ok {
		return 0, errors.Wrapf(ErrNotConfigured, "read GPIO%d", channel)
	}
	if pin.Read() == pgpio.High {
		return High, nil
	}
	return Low, nil
}

// AnalogRead is not supported.
func (p *PeriphIO) AnalogRead(channel int) (int, error) {
	return 0, ErrAnalogUnsupported
}

// DigitalWrite drives the pin.
func (p *PeriphIO) DigitalWrite(channel, value int) error {
	pin, ok := p.pins[channel]
	if !ok {
		return errors.Wrapf(ErrNotConfigured, "write GPIO%d", channel)
	}
	if err := pin.Out(pgpio.Level(value != 0)); err != nil {
		return errors.Wrapf(err, "write %s", pin)
	}
	return nil
}

// AnalogWrite is not supported.
func (p *PeriphIO) AnalogWrite(channel, value int) error {
	return ErrAnalogUnsupported
}

// Close halts every pin that was used.
func (p *PeriphIO) Close() error {
	var errs []error
	for _, pin := range p.pins {
		if err := pin.Halt(); err != nil {
			errs = append(errs, errors.Wrapf(err, "halt %s", pin))
		}
	}
	p.pins = make(map[int]pgpio.PinIO)
	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}
