package gpio

import "github.com/pkg/errors"

// Write records a single write made through FakeIO.
type Write struct {
	Channel int
	Value   int
	Analog  bool
}

// FakeConfig records how a channel was configured.
type FakeConfig struct {
	Output bool
	Analog bool
	PullUp bool
}

// FakeIO is a test double holding channel levels in memory.
// Inputs are set with Set; writes are recorded in Writes and also update
// the channel level so a write can be read back.
type FakeIO struct {
	// Levels holds the current value of every channel.
	Levels map[int]int

	// Configs records the last configuration of every channel.
	Configs map[int]FakeConfig

	// Writes contains all writes in call order.
	Writes []Write

	// Reads counts read calls per channel.
	Reads map[int]int

	// ReadError, if set, is returned by DigitalRead and AnalogRead.
	ReadError error

	// WriteError, if set, is returned by DigitalWrite and AnalogWrite.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIO creates an empty FakeIO. Unset channels read Low.
func NewFakeIO() *FakeIO {
	return &FakeIO{
		Levels:  make(map[int]int),
		Configs: make(map[int]FakeConfig),
		Reads:   make(map[int]int),
	}
}

// Set changes the level seen by subsequent reads of channel.
func (f *FakeIO) Set(channel, value int) {
	f.Levels[channel] = value
}

// ConfigureInput records an input configuration.
func (f *FakeIO) ConfigureInput(channel int, analog, pullUp bool) error {
	f.Configs[channel] = FakeConfig{Analog: analog, PullUp: pullUp}
	if pullUp && !analog {
		if _, ok := f.Levels[channel]; !ok {
			f.Levels[channel] = High
		}
	}
	return nil
}

// ConfigureOutput records an output configuration.
func (f *FakeIO) ConfigureOutput(channel int, analog bool) error {
	f.Configs[channel] = FakeConfig{Output: true, Analog: analog}
	return nil
}

// DigitalRead returns the channel level as Low or High.
func (f *FakeIO) DigitalRead(channel int) (int, error) {
	f.Reads[channel]++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return level(f.Levels[channel]), nil
}

// AnalogRead returns the raw channel value.
func (f *FakeIO) AnalogRead(channel int) (int, error) {
	f.Reads[channel]++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Levels[channel], nil
}

// DigitalWrite records the write and stores the resulting level.
func (f *FakeIO) DigitalWrite(channel, value int) error {
	return f.write(channel, level(value), false)
}

// AnalogWrite records the write and stores the value.
func (f *FakeIO) AnalogWrite(channel, value int) error {
	if value < 0 || value > 255 {
		return errors.Errorf("gpio: analog value %d out of range on channel %d", value, channel)
	}
	return f.write(channel, value, true)
}

func (f *FakeIO) write(channel, value int, analog bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, Write{Channel: channel, Value: value, Analog: analog})
	f.Levels[channel] = value
	return nil
}

// WritesTo returns the values written to channel, in order.
func (f *FakeIO) WritesTo(channel int) []int {
	var values []int
	for _, w := range f.Writes {
		if w.Channel == channel {
			values = append(values, w.Value)
		}
	}
	return values
}

// Close marks the fake as closed.
func (f *FakeIO) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes and errors but keeps channel levels.
func (f *FakeIO) Reset() {
	f.Writes = nil
	f.Reads = make(map[int]int)
	f.ReadError = nil
	f.WriteError = nil
	f.Closed = false
}
