// Package status keeps a thread-safe copy of the pin states for readers
// outside the polling loop (HTTP handlers, MQTT lifecycle events).
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pinscan/internal/pins"
)

// Config contains daemon configuration for display.
type Config struct {
	Backend     string
	Layout      string
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// SensorStatus is a copy of one sensor's state.
type SensorStatus struct {
	Name        string
	Channel     int
	Analog      bool
	PullUp      bool
	Reversed    bool
	State       uint
	Pending     bool
	Transitions int
}

// OutputStatus is a copy of one output's state.
type OutputStatus struct {
	Name    string
	Channel int
	Analog  bool
	Value   byte
	Pending byte
	Shift   bool
	Mirror  string // name of the mirrored sensor, if any
}

// Snapshot is a point-in-time view of daemon state. Slices are never
// shared with the Tracker, so a Snapshot is safe to use after the lock
// is released.
type Snapshot struct {
	Sensors       []SensorStatus
	Outputs       []OutputStatus
	Scans         uint64
	Changes       uint64 // scans in which a sensor changed
	Ready         bool   // at least one scan completed
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Transitions returns the total number of sensor transitions.
func (s Snapshot) Transitions() int {
	n := 0
	for _, st := range s.Sensors {
		n += st.Transitions
	}
	return n
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the state of every sensor and output in elements after
// a scan. changed is the result of pins.CheckSensors for that scan.
// Must be called from the polling loop that owns the elements.
func (t *Tracker) Update(elements []pins.Element, changed bool) {
	var sensors []SensorStatus
	var outputs []OutputStatus
	for _, e := range elements {
		switch e := e.(type) {
		case *pins.Sensor:
			sensors = append(sensors, SensorStatus{
				Name:        e.Name(),
				Channel:     e.Channel(),
				Analog:      e.Analog(),
				PullUp:      e.PullUp(),
				Reversed:    e.Reversed(),
				State:       e.State(),
				Pending:     e.Pending(),
				Transitions: e.Transitions(),
			})
		case *pins.Output:
			st := OutputStatus{
				Name:    e.Name(),
				Channel: e.Channel(),
				Analog:  e.Analog(),
				Value:   e.Value(),
				Pending: e.Pending(),
				Shift:   e.Shift() != nil,
			}
			if src := e.Source(); src != nil {
				st.Mirror = src.Name()
			}
			outputs = append(outputs, st)
		}
	}

	t.mu.Lock()
	t.snap.Sensors = sensors
	t.snap.Outputs = outputs
	t.snap.Scans++
	if changed {
		t.snap.Changes++
	}
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a copy of the daemon state with Now set to the
// time of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Sensors = append([]SensorStatus(nil), t.snap.Sensors...)
	s.Outputs = append([]OutputStatus(nil), t.snap.Outputs...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
