package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Scans         uint64       `json:"scans"`
	Changes       uint64       `json:"changes"`
	Sensors       []SensorJSON `json:"sensors"`
	Outputs       []OutputJSON `json:"outputs"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        *ConfigJSON  `json:"config,omitempty"`
}

// SensorJSON is the JSON representation of a sensor.
type SensorJSON struct {
	Name        string `json:"name"`
	Channel     int    `json:"channel"`
	Analog      bool   `json:"analog,omitempty"`
	PullUp      bool   `json:"pull_up,omitempty"`
	Reversed    bool   `json:"reversed,omitempty"`
	State       uint   `json:"state"`
	Pending     bool   `json:"pending"`
	Transitions int    `json:"transitions"`
}

// OutputJSON is the JSON representation of an output.
type OutputJSON struct {
	Name    string `json:"name"`
	Channel int    `json:"channel"`
	Analog  bool   `json:"analog,omitempty"`
	Value   byte   `json:"value"`
	Pending byte   `json:"pending"`
	Shift   bool   `json:"shift,omitempty"`
	Mirror  string `json:"mirror,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend     string `json:"backend"`
	Layout      string `json:"layout"`
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Scans:         snap.Scans,
		Changes:       snap.Changes,
		Sensors:       make([]SensorJSON, 0, len(snap.Sensors)),
		Outputs:       make([]OutputJSON, 0, len(snap.Outputs)),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
	}
	for _, s := range snap.Sensors {
		inner.Sensors = append(inner.Sensors, SensorJSON(s))
	}
	for _, o := range snap.Outputs {
		inner.Outputs = append(inner.Outputs, OutputJSON(o))
	}
	return inner
}

func buildConfig(cfg Config) *ConfigJSON {
	c := ConfigJSON(cfg)
	return &c
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	inner.Config = buildConfig(snap.Config)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// Config is only included at startup.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	if event == "STARTUP" {
		inner.Config = buildConfig(snap.Config)
	}

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
