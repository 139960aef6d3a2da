package pins

import (
	"github.com/sweeney/pinscan/internal/clock"
)

// CheckSensors polls every Sensor in elements once and reports whether
// any of them returned a value different from the one it had before the
// call. With debounce set it uses DebouncedRead (and so fires actions);
// otherwise it uses Read and compares against the previous raw pass.
// Elements that are not sensors are skipped.
func CheckSensors(elements []Element, debounce bool, clk clock.Clock) bool {
	changed := false
	for _, e := range elements {
		s, ok := e.(*Sensor)
		if !ok {
			continue
		}
		if debounce {
			before := s.current
			if s.DebouncedRead(clk) != before {
				changed = true
			}
			continue
		}
		before := s.lastRaw
		s.lastRaw = s.Read()
		if s.lastRaw != before {
			changed = true
		}
	}
	return changed
}

// TriggerOutputs triggers every Output in elements, in order. Shift
// devices touched during the pass are committed once each afterwards,
// in the order they were first used. Other elements are skipped.
func TriggerOutputs(elements []Element) {
	var touched []*Output
	for _, e := range elements {
		o, ok := e.(*Output)
		if !ok {
			continue
		}
		o.Trigger()
		if o.shift != nil && !sharesShift(touched, o.shift) {
			touched = append(touched, o)
		}
	}
	for _, o := range touched {
		if err := o.shift.Commit(); err != nil {
			o.log.Debug().Err(err).Msg("shift commit failed")
			ioErrorsTotal.WithLabelValues(o.name, "commit").Inc()
		}
	}
}

func sharesShift(outputs []*Output, dev ShiftDevice) bool {
	for _, o := range outputs {
		if o.shift == dev {
			return true
		}
	}
	return false
}
