//go:build linux

package gpio

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// CdevIO drives channels through the Linux GPIO character device.
// Channel numbers are line offsets on the chip (BCM numbering on a Pi).
type CdevIO struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewCdevIO opens the named GPIO chip, e.g. "gpiochip0".
func NewCdevIO(chipName string) (*CdevIO, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, errors.Wrapf(err, "open gpio chip %s", chipName)
	}
	return &CdevIO{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

// ConfigureInput requests channel as an input line.
func (c *CdevIO) ConfigureInput(channel int, analog, pullUp bool) error {
	if analog {
		return ErrAnalogUnsupported
	}
	bias := gpiocdev.WithPullDown
	if pullUp {
		bias = gpiocdev.WithPullUp
	}
	return c.request(channel, gpiocdev.AsInput, bias)
}

// ConfigureOutput requests channel as an output line, initially low.
func (c *CdevIO) ConfigureOutput(channel int, analog bool) error {
	if analog {
		return ErrAnalogUnsupported
	}
	return c.request(channel, gpiocdev.AsOutput(Low))
}

func (c *CdevIO) request(channel int, opts ...gpiocdev.LineReqOption) error {
	if l, ok := c.lines[channel]; ok {
		// Direction changed: release the old request first.
		if err := l.Close(); err != nil {
			return errors.Wrapf(err, "release line %d", channel)
		}
		delete(c.lines, channel)
	}
	l, err := c.chip.RequestLine(channel, opts...)
	if err != nil {
		return errors.Wrapf(err, "request line %d", channel)
	}
	c.lines[channel] = l
	return nil
}

// DigitalRead returns the line value.
func (c *CdevIO) DigitalRead(channel int) (int, error) {
	l, ok := c.lines[channel]
	if !ok {
		return 0, errors.Wrapf(ErrNotConfigured, "read line %d", channel)
	}
	v, err := l.Value()
	if err != nil {
		return 0, errors.Wrapf(err, "read line %d", channel)
	}
	return level(v), nil
}

// AnalogRead is not supported by the character device.
func (c *CdevIO) AnalogRead(channel int) (int, error) {
	return 0, ErrAnalogUnsupported
}

// DigitalWrite sets the line value.
func (c *CdevIO) DigitalWrite(channel, value int) error {
	l, ok := c.lines[channel]
	if !ok {
		return errors.Wrapf(ErrNotConfigured, "write line %d", channel)
	}
	if err := l.SetValue(level(value)); err != nil {
		return errors.Wrapf(err, "write line %d", channel)
	}
	return nil
}

// AnalogWrite is not supported by the character device.
func (c *CdevIO) AnalogWrite(channel, value int) error {
	return ErrAnalogUnsupported
}

// Close releases all lines and the chip.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing so outputs are not left driven.
func (c *CdevIO) Close() error {
	var errs []error
	for channel, l := range c.lines {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, errors.Wrapf(err, "reconfigure line %d", channel))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close line %d", channel))
		}
	}
	c.lines = make(map[int]*gpiocdev.Line)
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close chip"))
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}
