// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/thermobus/internal/status"
	"github.com/sweeney/thermobus/internal/temperature"
)

// TopicPrefix is the parent topic for per-sensor readings. Each sensor
// publishes to TopicPrefix + "/" + label.
const TopicPrefix = "sensors/temperature"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = TopicPrefix + "/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a sensor reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event ReadingEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ReadingEvent is the state of one sensor at the end of a cycle.
type ReadingEvent struct {
	Timestamp time.Time
	Sensor    status.SensorSnapshot
	Unit      temperature.Unit
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// ReadingTopic returns the topic a sensor's readings are published on.
func ReadingTopic(label string) string {
	return TopicPrefix + "/" + label
}

// Payload represents the MQTT message payload for a sensor reading.
type Payload struct {
	Timestamp string            `json:"timestamp"`
	Sensor    status.SensorJSON `json:"sensor"`
}

// FormatPayload creates the JSON payload for a sensor reading.
func FormatPayload(event ReadingEvent) ([]byte, error) {
	payload := Payload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Sensor:    status.FormatSensor(event.Sensor, event.Unit),
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
