// Package gpio provides physical channel I/O with hardware abstraction.
// Hardware backends use the Linux GPIO character device, periph.io or an
// MCP23017 I2C port expander. The fake implementation allows testing
// without hardware.
package gpio

import "github.com/pkg/errors"

// Logic levels for digital channels.
const (
	Low  = 0
	High = 1
)

// AnalogMax is the full scale value of an analog channel (10 bit).
const AnalogMax = 1023

var (
	// ErrAnalogUnsupported is returned by backends without analog channels.
	ErrAnalogUnsupported = errors.New("gpio: analog channels not supported")

	// ErrNotConfigured is returned when a channel is used before it was
	// configured for that direction.
	ErrNotConfigured = errors.New("gpio: channel not configured")
)

// IO reads and writes physical channels.
type IO interface {
	// ConfigureInput prepares channel for reading, optionally with the
	// internal pull-up bias enabled.
	ConfigureInput(channel int, analog, pullUp bool) error

	// ConfigureOutput prepares channel for writing.
	ConfigureOutput(channel int, analog bool) error

	// DigitalRead returns Low or High.
	DigitalRead(channel int) (int, error)

	// AnalogRead returns a sample in [0, AnalogMax].
	AnalogRead(channel int) (int, error)

	// DigitalWrite drives channel Low (0) or High (any other value).
	DigitalWrite(channel, value int) error

	// AnalogWrite drives channel with a duty/level in [0, 255].
	AnalogWrite(channel, value int) error

	// Close releases hardware resources.
	Close() error
}

func level(value int) int {
	if value != 0 {
		return High
	}
	return Low
}
