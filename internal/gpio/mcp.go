//go:build linux

package gpio

import (
	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
)

// mcpPinCount is the number of channels on an MCP23017 (A0..A7, B0..B7).
const mcpPinCount = 16

// MCPIO drives the 16 channels of an MCP23017 I2C port expander.
type MCPIO struct {
	device *mcp23017.Device
}

// NewMCPIO opens the expander at the given I2C bus and device number (0-7).
func NewMCPIO(bus, address uint8) (*MCPIO, error) {
	device, err := mcp23017.Open(bus, address)
	if err != nil {
		return nil, errors.Wrapf(err, "open mcp23017 on bus %d, device %d", bus, address)
	}
	return &MCPIO{device: device}, nil
}

func (m *MCPIO) pin(channel int) (uint8, error) {
	if channel < 0 || channel >= mcpPinCount {
		return 0, errors.Errorf("mcp23017 channel %d out of range [0..%d]", channel, mcpPinCount-1)
	}
	return uint8(channel), nil
}

// ConfigureInput sets channel as input with optional pull-up.
func (m *MCPIO) ConfigureInput(channel int, analog, pullUp bool) error {
	if analog {
		return ErrAnalogUnsupported
	}
	pin, err := m.pin(channel)
	if err != nil {
		return err
	}
	if err := m.device.PinMode(pin, mcp23017.INPUT); err != nil {
		return errors.Wrapf(err, "set mode of mcp23017 pin %d", pin)
	}
	if err := m.device.SetPullUp(pin, pullUp); err != nil {
		return errors.Wrapf(err, "set pull-up of mcp23017 pin %d", pin)
	}
	return nil
}

// ConfigureOutput sets channel as output.
func (m *MCPIO) ConfigureOutput(channel int, analog bool) error {
	if analog {
		return ErrAnalogUnsupported
	}
	pin, err := m.pin(channel)
	if err != nil {
		return err
	}
	if err := m.device.PinMode(pin, mcp23017.OUTPUT); err != nil {
		return errors.Wrapf(err, "set mode of mcp23017 pin %d", pin)
	}
	return nil
}

// DigitalRead reads channel.
func (m *MCPIO) DigitalRead(channel int) (int, error) {
	pin, err := m.pin(channel)
	if err != nil {
		return 0, err
	}
	v, err := m.device.DigitalRead(pin)
	if err != nil {
		return 0, errors.Wrapf(err, "read mcp23017 pin %d", pin)
	}
	if bool(v) {
		return High, nil
	}
	return Low, nil
}

// AnalogRead is not supported by the expander.
func (m *MCPIO) AnalogRead(channel int) (int, error) {
	return 0, ErrAnalogUnsupported
}

// DigitalWrite writes channel.
func (m *MCPIO) DigitalWrite(channel, value int) error {
	pin, err := m.pin(channel)
	if err != nil {
		return err
	}
	if err := m.device.DigitalWrite(pin, mcp23017.PinLevel(value != 0)); err != nil {
		return errors.Wrapf(err, "write mcp23017 pin %d", pin)
	}
	return nil
}

// AnalogWrite is not supported by the expander.
func (m *MCPIO) AnalogWrite(channel, value int) error {
	return ErrAnalogUnsupported
}

// Close releases the bus.
func (m *MCPIO) Close() error {
	return m.device.Close()
}
