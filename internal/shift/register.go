// Package shift drives daisy-chained 74HC595 style serial-in/parallel-out
// shift registers by bit-banging three channels of a gpio.IO.
//
// Bits are staged in memory with StageBit and only reach the output pins
// when Commit shifts the whole buffer out and pulses the latch.
package shift

import (
	"github.com/pkg/errors"

	"github.com/sweeney/pinscan/internal/gpio"
)

// MaxWidth is the largest supported chain length in bits.
const MaxWidth = 64

// Register is a chain of shift registers sharing data, clock and latch lines.
// Not safe for concurrent use.
type Register struct {
	io                 gpio.IO
	data, clock, latch int
	width              int

	staged    uint64
	committed uint64
	commits   int
}

// Config describes the control channels and chain length.
type Config struct {
	Data  int
	Clock int
	Latch int
	Width int // number of output bits, 8 per chip
}

// New configures the control channels as outputs and returns a Register
// with every bit cleared.
func New(io gpio.IO, cfg Config) (*Register, error) {
	if cfg.Width <= 0 || cfg.Width > MaxWidth {
		return nil, errors.Errorf("shift register width %d out of range [1..%d]", cfg.Width, MaxWidth)
	}
	for _, ch := range []int{cfg.Data, cfg.Clock, cfg.Latch} {
		if err := io.ConfigureOutput(ch, false); err != nil {
			return nil, errors.Wrapf(err, "configure shift register channel %d", ch)
		}
	}
	return &Register{
		io:    io,
		data:  cfg.Data,
		clock: cfg.Clock,
		latch: cfg.Latch,
		width: cfg.Width,
	}, nil
}

// Width returns the number of output bits.
func (r *Register) Width() int {
	return r.width
}

// StageBit sets or clears the bit at position in the staged buffer.
// Positions outside the chain are ignored.
func (r *Register) StageBit(position int, on bool) {
	if position < 0 || position >= r.width {
		return
	}
	mask := uint64(1) << uint(position)
	if on {
		r.staged |= mask
	} else {
		r.staged &^= mask
	}
}

// Staged returns the staged bit buffer.
func (r *Register) Staged() uint64 {
	return r.staged
}

// Committed returns the bits most recently latched onto the outputs.
func (r *Register) Committed() uint64 {
	return r.committed
}

// Commits returns how many times the buffer was latched.
func (r *Register) Commits() int {
	return r.commits
}

// Commit shifts the staged buffer out, highest position first, and pulses
// the latch so all outputs change together.
func (r *Register) Commit() error {
	if err := r.io.DigitalWrite(r.latch, gpio.Low); err != nil {
		return errors.Wrap(err, "lower latch")
	}
	for i := r.width - 1; i >= 0; i-- {
		bit := int(r.staged>>uint(i)) & 1
		if err := r.io.DigitalWrite(r.data, bit); err != nil {
			return errors.Wrapf(err, "write bit %d", i)
		}
		if err := r.io.DigitalWrite(r.clock, gpio.High); err != nil {
			return errors.Wrap(err, "raise clock")
		}
		if err := r.io.DigitalWrite(r.clock, gpio.Low); err != nil {
			return errors.Wrap(err, "lower clock")
		}
	}
	if err := r.io.DigitalWrite(r.latch, gpio.High); err != nil {
		return errors.Wrap(err, "raise latch")
	}
	r.committed = r.staged
	r.commits++
	return nil
}
