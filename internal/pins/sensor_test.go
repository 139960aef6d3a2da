package pins

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/sweeney/pinscan/internal/clock"
	"github.com/sweeney/pinscan/internal/gpio"
)

type call struct {
	channel int
	value   uint
}

// recorder returns an Action appending to calls.
func recorder(calls *[]call) Action {
	return func(channel int, value uint) {
		*calls = append(*calls, call{channel, value})
	}
}

func newTestSensor(t *testing.T, io *gpio.FakeIO, cfg SensorConfig) *Sensor {
	t.Helper()
	s, err := NewSensor(io, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSensor: %v", err)
	}
	return s
}

func TestNewSensorDefaults(t *testing.T) {
	io := gpio.NewFakeIO()
	s := newTestSensor(t, io, SensorConfig{Channel: 4})

	if s.Role() != RoleSensor {
		t.Errorf("expected role sensor, got %s", s.Role())
	}
	if s.Channel() != 4 {
		t.Errorf("expected channel 4, got %d", s.Channel())
	}
	if s.DebounceDelay() != DefaultDebounceDelay {
		t.Errorf("expected default delay %d, got %d", DefaultDebounceDelay, s.DebounceDelay())
	}
	if s.Name() != "in4" {
		t.Errorf("expected name in4, got %q", s.Name())
	}
	if cfg := io.Configs[4]; cfg.Output || cfg.PullUp || cfg.Analog {
		t.Errorf("unexpected channel config: %+v", cfg)
	}
}

func TestNewSensorPullUpSeedsState(t *testing.T) {
	io := gpio.NewFakeIO()
	var calls []call
	s := newTestSensor(t, io, SensorConfig{Channel: 7, PullUp: true, Action: recorder(&calls)})

	if !io.Configs[7].PullUp {
		t.Error("expected pull-up bias requested")
	}
	if s.State() != 1 || s.Previous() != 1 {
		t.Errorf("expected seeded state 1, got current=%d previous=%d", s.State(), s.Previous())
	}

	clk := clock.NewFakeClock(0)
	for i := 0; i < 5; i++ {
		s.DebouncedRead(clk)
		clk.Advance(100)
	}
	if len(calls) != 0 {
		t.Errorf("initial state should not fire the action, got %d calls", len(calls))
	}
}

func TestNewSensorConfigureError(t *testing.T) {
	if _, err := NewSensor(failingIO{gpio.NewFakeIO()}, SensorConfig{Channel: 1}, zerolog.Nop()); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadReversed(t *testing.T) {
	tests := []struct {
		name     string
		analog   bool
		reversed bool
		raw      int
		want     uint
	}{
		{"digital low", false, false, 0, 0},
		{"digital high", false, false, 1, 1},
		{"digital reversed low", false, true, 0, 1},
		{"digital reversed high", false, true, 1, 0},
		{"analog", true, false, 700, 700},
		{"analog reversed", true, true, 1000, 23},
		{"analog clamped", true, false, 5000, gpio.AnalogMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			io := gpio.NewFakeIO()
			s := newTestSensor(t, io, SensorConfig{Channel: 1, Analog: tt.analog, Reversed: tt.reversed})
			io.Set(1, tt.raw)
			if got := s.Read(); got != tt.want {
				t.Errorf("Read() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReadHasNoDebounceSideEffects(t *testing.T) {
	io := gpio.NewFakeIO()
	s := newTestSensor(t, io, SensorConfig{Channel: 1})

	io.Set(1, 1)
	if s.Read() != 1 {
		t.Fatal("expected raw 1")
	}
	if s.State() != 0 || s.Previous() != 0 || s.Pending() {
		t.Errorf("Read changed debounce state: current=%d previous=%d", s.State(), s.Previous())
	}
}

// Delay 50, samples [0,0,1,1,1,1] at [0,10,20,30,70,90]: the state flips
// at t=70, 50ms after the first differing sample, and the action runs once.
func TestDebouncedReadAcceptsAfterStableWindow(t *testing.T) {
	io := gpio.NewFakeIO()
	var calls []call
	s := newTestSensor(t, io, SensorConfig{Channel: 2, DebounceDelay: 50, Action: recorder(&calls)})
	clk := clock.NewFakeClock(0)

	samples := []struct {
		at   clock.Millis
		raw  int
		want uint
	}{
		{0, 0, 0},
		{10, 0, 0},
		{20, 1, 0},
		{30, 1, 0},
		{70, 1, 1},
		{90, 1, 1},
	}

	for _, sm := range samples {
		clk.Set(sm.at)
		io.Set(2, sm.raw)
		if got := s.DebouncedRead(clk); got != sm.want {
			t.Errorf("t=%d: DebouncedRead() = %d, want %d", sm.at, got, sm.want)
		}
		if sm.at == 20 && s.Deadline() != 70 {
			t.Errorf("t=20: expected deadline 70, got %d", s.Deadline())
		}
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 action call, got %d", len(calls))
	}
	if calls[0] != (call{2, 1}) {
		t.Errorf("unexpected action call: %+v", calls[0])
	}
	if s.Transitions() != 1 {
		t.Errorf("expected 1 transition, got %d", s.Transitions())
	}
}

func TestDebouncedReadJustBeforeDeadline(t *testing.T) {
	io := gpio.NewFakeIO()
	s := newTestSensor(t, io, SensorConfig{Channel: 2, DebounceDelay: 50})
	clk := clock.NewFakeClock(100)

	io.Set(2, 1)
	s.DebouncedRead(clk)
	clk.Advance(49)
	if s.DebouncedRead(clk) != 0 {
		t.Error("state should not change before the delay has elapsed")
	}
	clk.Advance(1)
	if s.DebouncedRead(clk) != 1 {
		t.Error("state should change once the delay has elapsed")
	}
}

func TestDebouncedReadRejectsNoise(t *testing.T) {
	io := gpio.NewFakeIO()
	var calls []call
	s := newTestSensor(t, io, SensorConfig{Channel: 3, DebounceDelay: 50, Action: recorder(&calls)})
	clk := clock.NewFakeClock(0)

	// Toggle every 10ms for a second.
	for i := 0; i < 100; i++ {
		io.Set(3, i%2)
		if got := s.DebouncedRead(clk); got != 0 {
			t.Fatalf("i=%d: state changed to %d on noise", i, got)
		}
		clk.Advance(10)
	}
	// The toggles ended high; settle low so each glitch starts its own window.
	io.Set(3, 0)
	s.DebouncedRead(clk)
	clk.Advance(60)
	if got := s.DebouncedRead(clk); got != 0 || s.Pending() {
		t.Fatalf("expected settled state 0, got %d pending=%v", got, s.Pending())
	}

	// Glitches just shorter than the delay.
	for i := 0; i < 10; i++ {
		io.Set(3, 1)
		s.DebouncedRead(clk)
		clk.Advance(49)
		if got := s.DebouncedRead(clk); got != 0 {
			t.Fatalf("glitch %d: state changed to %d after 49ms", i, got)
		}
		io.Set(3, 0)
		if got := s.DebouncedRead(clk); got != 0 {
			t.Fatalf("glitch %d: state changed to %d on release", i, got)
		}
		clk.Advance(10)
	}

	if s.State() != 0 {
		t.Errorf("expected state 0, got %d", s.State())
	}
	if len(calls) != 0 {
		t.Errorf("expected no action calls, got %d", len(calls))
	}
}

func TestDebouncedReadOneCallPerTransition(t *testing.T) {
	io := gpio.NewFakeIO()
	var calls []call
	s := newTestSensor(t, io, SensorConfig{Channel: 5, DebounceDelay: 50, Action: recorder(&calls)})
	clk := clock.NewFakeClock(0)

	levels := []int{1, 0, 1, 1, 0}
	for _, l := range levels {
		io.Set(5, l)
		// Hold each level for 200ms, polled every 10ms.
		for i := 0; i < 20; i++ {
			s.DebouncedRead(clk)
			clk.Advance(10)
		}
		if s.State() != uint(l) {
			t.Fatalf("expected state to settle at %d, got %d", l, s.State())
		}
	}

	// 1, 0, 1, (1 again: no transition), 0
	want := []uint{1, 0, 1, 0}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d: %+v", len(want), len(calls), calls)
	}
	for i, w := range want {
		if calls[i].value != w {
			t.Errorf("call %d: value %d, want %d", i, calls[i].value, w)
		}
	}
}

func TestDebouncedReadAcrossClockWrap(t *testing.T) {
	io := gpio.NewFakeIO()
	var calls []call
	s := newTestSensor(t, io, SensorConfig{Name: "wrap", Channel: 6, DebounceDelay: 50, Action: recorder(&calls)})
	clk := clock.NewFakeClock(math.MaxUint32 - 10)

	io.Set(6, 1)
	s.DebouncedRead(clk)
	clk.Advance(40) // wrapped, 40ms elapsed
	if s.DebouncedRead(clk) != 0 {
		t.Fatal("state changed too early across wrap")
	}
	clk.Advance(10)
	if s.DebouncedRead(clk) != 1 {
		t.Fatal("state should change 50ms after the change, across the wrap")
	}
	if len(calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(calls))
	}
	if got := testutil.ToFloat64(sensorTransitionsTotal.WithLabelValues("wrap")); got != 1 {
		t.Errorf("expected transitions metric 1, got %v", got)
	}
}

func TestDebouncedReadNilAction(t *testing.T) {
	io := gpio.NewFakeIO()
	s := newTestSensor(t, io, SensorConfig{Channel: 8, DebounceDelay: 10})
	clk := clock.NewFakeClock(0)

	io.Set(8, 1)
	s.DebouncedRead(clk)
	clk.Advance(10)
	if s.DebouncedRead(clk) != 1 {
		t.Error("state should update without an action")
	}
}

func TestSetActionReplaces(t *testing.T) {
	io := gpio.NewFakeIO()
	var first, second []call
	s := newTestSensor(t, io, SensorConfig{Channel: 9, DebounceDelay: 10, Action: recorder(&first)})
	s.SetAction(recorder(&second))
	clk := clock.NewFakeClock(0)

	io.Set(9, 1)
	s.DebouncedRead(clk)
	clk.Advance(10)
	s.DebouncedRead(clk)

	if len(first) != 0 || len(second) != 1 {
		t.Errorf("expected only the replacement action to run, got %d and %d", len(first), len(second))
	}
}

func TestDebouncedReadErrorHoldsState(t *testing.T) {
	io := gpio.NewFakeIO()
	s := newTestSensor(t, io, SensorConfig{Name: "flaky", Channel: 10, DebounceDelay: 10})
	clk := clock.NewFakeClock(0)

	io.Set(10, 1)
	io.ReadError = errors.New("bus fault")
	for i := 0; i < 5; i++ {
		if s.DebouncedRead(clk) != 0 {
			t.Fatal("failed reads should not change state")
		}
		clk.Advance(10)
	}
	if s.Pending() {
		t.Error("failed reads should not start a transition")
	}
	if got := testutil.ToFloat64(ioErrorsTotal.WithLabelValues("flaky", "read")); got != 5 {
		t.Errorf("expected 5 read errors, got %v", got)
	}
}

func TestReadErrorReturnsLastSample(t *testing.T) {
	io := gpio.NewFakeIO()
	s := newTestSensor(t, io, SensorConfig{Name: "flaky-raw", Channel: 11})

	io.Set(11, 1)
	if s.Read() != 1 {
		t.Fatal("expected raw 1")
	}
	io.ReadError = errors.New("bus fault")
	if got := s.Read(); got != 1 {
		t.Errorf("failed read returned %d, want last sample 1", got)
	}
	if s.Previous() != 0 {
		t.Errorf("Read changed debounce state: previous=%d", s.Previous())
	}
}

// failingIO rejects every configuration.
type failingIO struct{ *gpio.FakeIO }

func (failingIO) ConfigureInput(int, bool, bool) error { return errors.New("no such channel") }
func (failingIO) ConfigureOutput(int, bool) error      { return errors.New("no such channel") }
