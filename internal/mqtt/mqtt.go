// Package mqtt publishes sensor transitions and lifecycle events to an MQTT
// broker, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicEvents is the MQTT topic for sensor transition events.
const TopicEvents = "pinscan/pins/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "pinscan/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a sensor transition. It must not block the polling
	// loop for long; failures are returned, never fatal.
	Publish(event PinEvent) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// PinEvent is a confirmed transition of a named sensor.
type PinEvent struct {
	Timestamp time.Time
	Name      string
	Channel   int
	Value     uint
}

// SystemEvent represents a system lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted JSON; returned as is by FormatSystemPayload
	Retained   bool
}

// Payload is the JSON body of a pin event.
type Payload struct {
	Pin PinPayload `json:"pin"`
}

// PinPayload contains the pin event details.
type PinPayload struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Channel   int    `json:"channel"`
	Value     uint   `json:"value"`
}

// FormatPayload creates the JSON payload for a pin event.
func FormatPayload(event PinEvent) ([]byte, error) {
	return json.Marshal(Payload{
		Pin: PinPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Name:      event.Name,
			Channel:   event.Channel,
			Value:     event.Value,
		},
	})
}

// SystemPayload is the JSON body of a simple system event (LWT, RECONNECTED)
// without a status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
