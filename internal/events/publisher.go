package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subjects carried on the bus. The websocket bridge subscribes to
// SubjectAll and fans everything out to dashboard clients.
const (
	SubjectRecording = "dvr.recording"
	SubjectMotion    = "dvr.motion"
	SubjectSweep     = "dvr.sweep"
	SubjectAll       = "dvr.>"
)

// Event is the wire shape for every bus message.
type Event struct {
	Type        string     `json:"type"`
	CameraID    uuid.UUID  `json:"camera_id,omitempty"`
	RecordingID *uuid.UUID `json:"recording_id,omitempty"`
	UserID      uuid.UUID  `json:"user_id,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
	Detail      any        `json:"detail,omitempty"`
}

// Publisher is the consumer-side interface services depend on.
type Publisher interface {
	Publish(subject string, evt Event) error
}

// NATSPublisher publishes events with bounded linear-backoff retries.
type NATSPublisher struct {
	conn       *nats.Conn
	maxRetries int
}

func NewNATSPublisher(conn *nats.Conn, maxRetries int) *NATSPublisher {
	return &NATSPublisher{conn: conn, maxRetries: maxRetries}
}

func (p *NATSPublisher) Publish(subject string, evt Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	for i := 0; i <= p.maxRetries; i++ {
		err = p.conn.Publish(subject, data)
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}
	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}

// NoopPublisher stands in when NATS is unavailable or disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, Event) error { return nil }
