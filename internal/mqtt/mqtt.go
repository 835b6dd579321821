// Package mqtt publishes alert and lifecycle events for the paired viewer
// page, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TopicAlerts is the MQTT topic for sale alert events.
const TopicAlerts = "retail/saleswatch/alerts"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "retail/saleswatch/system"

// AlertType identifies the condition behind an alert event.
type AlertType string

const (
	AlertNewSale        AlertType = "NEW_SALE"
	AlertStockZero      AlertType = "STOCK_ZERO"
	AlertProductInvalid AlertType = "PRODUCT_INVALID"
)

// AlertEvent is one edge-triggered alert as sent to the viewer.
type AlertEvent struct {
	ID        string // unique per onset, for viewer-side dedup
	Timestamp time.Time
	Type      AlertType
	Mode      int // alert mode at dispatch time
}

// NewAlert stamps a fresh alert event of the given type.
func NewAlert(t AlertType, mode int) AlertEvent {
	return AlertEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      t,
		Mode:      mode,
	}
}

// SystemEvent represents a system lifecycle event (startup, shutdown,
// heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // pre-formatted status snapshot; returned directly if set
	Retained   bool
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishAlert sends an alert event to the broker. A disconnected
	// broker is not an error: implementations may buffer for replay.
	PublishAlert(event AlertEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// AlertPayload is the MQTT message payload for alert events.
type AlertPayload struct {
	Alert AlertPayloadInner `json:"alert"`
}

// AlertPayloadInner contains the alert details.
type AlertPayloadInner struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Mode      int    `json:"mode"`
}

// FormatAlertPayload creates the JSON payload for an alert event.
func FormatAlertPayload(event AlertEvent) ([]byte, error) {
	payload := AlertPayload{
		Alert: AlertPayloadInner{
			ID:        event.ID,
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Mode:      event.Mode,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the MQTT message payload for simple system events that
// carry no full status snapshot.
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
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
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
