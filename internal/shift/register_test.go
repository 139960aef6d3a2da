package shift

import (
	"errors"
	"testing"

	"github.com/sweeney/pinscan/internal/gpio"
)

const (
	chData  = 20
	chClock = 21
	chLatch = 22
)

func newTestRegister(t *testing.T, width int) (*Register, *gpio.FakeIO) {
	t.Helper()
	io := gpio.NewFakeIO()
	r, err := New(io, Config{Data: chData, Clock: chClock, Latch: chLatch, Width: width})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, io
}

// shiftedBits replays the fake's write log and returns the data level
// sampled on every rising clock edge.
func shiftedBits(io *gpio.FakeIO) []int {
	var bits []int
	data := 0
	for _, w := range io.Writes {
		switch w.Channel {
		case chData:
			data = w.Value
		case chClock:
			if w.Value == gpio.High {
				bits = append(bits, data)
			}
		}
	}
	return bits
}

func TestNewConfiguresOutputs(t *testing.T) {
	_, io := newTestRegister(t, 8)
	for _, ch := range []int{chData, chClock, chLatch} {
		if !io.Configs[ch].Output {
			t.Errorf("channel %d should be configured as output", ch)
		}
	}
}

func TestNewRejectsBadWidth(t *testing.T) {
	io := gpio.NewFakeIO()
	for _, w := range []int{0, -1, MaxWidth + 1} {
		if _, err := New(io, Config{Width: w}); err == nil {
			t.Errorf("width %d: expected error", w)
		}
	}
}

func TestStageBitDoesNotWrite(t *testing.T) {
	r, io := newTestRegister(t, 8)
	r.StageBit(0, true)
	r.StageBit(3, true)

	if len(io.Writes) != 0 {
		t.Errorf("StageBit should not touch hardware, got %d writes", len(io.Writes))
	}
	if r.Staged() != 0b1001 {
		t.Errorf("staged: got %b, want 1001", r.Staged())
	}
	if r.Committed() != 0 {
		t.Errorf("committed should still be 0, got %b", r.Committed())
	}

	r.StageBit(3, false)
	if r.Staged() != 0b0001 {
		t.Errorf("staged after clear: got %b, want 1", r.Staged())
	}
}

func TestStageBitOutOfRangeIgnored(t *testing.T) {
	r, _ := newTestRegister(t, 8)
	r.StageBit(8, true)
	r.StageBit(-1, true)
	if r.Staged() != 0 {
		t.Errorf("out of range positions should be ignored, got %b", r.Staged())
	}
}

func TestCommitShiftsHighestFirst(t *testing.T) {
	r, io := newTestRegister(t, 8)
	r.StageBit(0, true)
	r.StageBit(6, true)

	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	want := []int{0, 1, 0, 0, 0, 0, 0, 1}
	got := shiftedBits(io)
	if len(got) != len(want) {
		t.Fatalf("expected %d clocked bits, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bit %d: got %d, want %d", i, got[i], want[i])
		}
	}

	latch := io.WritesTo(chLatch)
	if len(latch) != 2 || latch[0] != gpio.Low || latch[1] != gpio.High {
		t.Errorf("expected latch low then high, got %v", latch)
	}
	if r.Committed() != r.Staged() {
		t.Errorf("committed %b != staged %b", r.Committed(), r.Staged())
	}
	if r.Commits() != 1 {
		t.Errorf("expected 1 commit, got %d", r.Commits())
	}
}

func TestCommitWriteError(t *testing.T) {
	r, io := newTestRegister(t, 8)
	r.StageBit(1, true)
	io.WriteError = errors.New("bus fault")

	if err := r.Commit(); err == nil {
		t.Fatal("expected error")
	}
	if r.Committed() != 0 {
		t.Errorf("failed commit should not update committed bits, got %b", r.Committed())
	}
	if r.Commits() != 0 {
		t.Errorf("expected 0 commits, got %d", r.Commits())
	}
}
