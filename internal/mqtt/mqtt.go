// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/logic"
)

// TopicEvents is the MQTT topic for pump transition events.
const TopicEvents = "water/tank/events"

// TopicStatus is the MQTT topic for periodic status reports.
const TopicStatus = "water/tank/status"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "water/tank/system"

// TopicConfig is the MQTT topic the controller subscribes to for
// runtime configuration patches.
const TopicConfig = "water/tank/config"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishEvent sends a pump transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishEvent(event logic.Event) error

	// PublishStatus sends a periodic status report to the broker.
	PublishStatus(report []byte) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Pump PumpPayload `json:"pump"`
}

// PumpPayload contains the pump event details.
type PumpPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Cause     string `json:"cause"`
	Water     int    `json:"water"`
}

// FormatEventPayload creates the JSON payload for a pump event.
func FormatEventPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Pump: PumpPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Cause:     string(event.Cause),
			Water:     event.Percent,
		},
	}
	return json.Marshal(payload)
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
