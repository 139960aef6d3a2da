//go:build !linux

package gpio

import "github.com/pkg/errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevIO is not available on non-Linux platforms.
type CdevIO struct{}

// NewCdevIO returns an error on non-Linux platforms.
func NewCdevIO(chipName string) (*CdevIO, error) {
	return nil, errUnsupported
}

func (c *CdevIO) ConfigureInput(channel int, analog, pullUp bool) error { return errUnsupported }
func (c *CdevIO) ConfigureOutput(channel int, analog bool) error        { return errUnsupported }
func (c *CdevIO) DigitalRead(channel int) (int, error)                  { return 0, errUnsupported }
func (c *CdevIO) AnalogRead(channel int) (int, error)                   { return 0, errUnsupported }
func (c *CdevIO) DigitalWrite(channel, value int) error                 { return errUnsupported }
func (c *CdevIO) AnalogWrite(channel, value int) error                  { return errUnsupported }
func (c *CdevIO) Close() error                                          { return nil }

// MCPIO is not available on non-Linux platforms.
type MCPIO struct{}

// NewMCPIO returns an error on non-Linux platforms.
func NewMCPIO(bus, address uint8) (*MCPIO, error) {
	return nil, errUnsupported
}

func (m *MCPIO) ConfigureInput(channel int, analog, pullUp bool) error { return errUnsupported }
func (m *MCPIO) ConfigureOutput(channel int, analog bool) error        { return errUnsupported }
func (m *MCPIO) DigitalRead(channel int) (int, error)                  { return 0, errUnsupported }
func (m *MCPIO) AnalogRead(channel int) (int, error)                   { return 0, errUnsupported }
func (m *MCPIO) DigitalWrite(channel, value int) error                 { return errUnsupported }
func (m *MCPIO) AnalogWrite(channel, value int) error                  { return errUnsupported }
func (m *MCPIO) Close() error                                          { return nil }
