// Package mqtt publishes boil and lifecycle events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/boil-monitor/internal/logic"
)

// Topic is the MQTT topic for boil events.
const Topic = "kitchen/boil-monitor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "kitchen/boil-monitor/system"

// System event names.
const (
	EventStartup    = "STARTUP"
	EventShutdown   = "SHUTDOWN"
	EventHeartbeat  = "HEARTBEAT"
	EventConfigured = "CONFIGURED"
	EventLWT        = "LWT"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a boil event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown, heartbeat, ...).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM" for SHUTDOWN, "TIMEOUT" for CONFIGURED
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a boil event.
type Payload struct {
	Boil BoilPayload `json:"boil"`
}

// BoilPayload contains the boil event details.
// TemperatureC is null when the triggering reading was a sensor fault.
type BoilPayload struct {
	Timestamp    string   `json:"timestamp"`
	Event        string   `json:"event"`
	TemperatureC *float64 `json:"temperature_c"`
	ThresholdC   float64  `json:"threshold_c"`
	EpisodeID    string   `json:"episode_id,omitempty"`
}

// FormatPayload creates the JSON payload for a boil event.
func FormatPayload(event logic.Event) ([]byte, error) {
	inner := BoilPayload{
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
		Event:      string(event.Type),
		ThresholdC: event.ThresholdC,
		EpisodeID:  event.EpisodeID,
	}
	if event.ReadingValid {
		t := event.TemperatureC
		inner.TemperatureC = &t
	}
	return json.Marshal(Payload{Boil: inner})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
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

// WillPayload is the retained last-will message the broker publishes on
// TopicSystem if the monitor drops off without a clean shutdown.
func WillPayload(now time.Time) []byte {
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: now,
		Event:     EventLWT,
		Reason:    "MQTT_DISCONNECT",
	})
	return payload
}
