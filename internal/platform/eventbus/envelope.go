package eventbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps a domain payload with the fields every event carries per
// §4.4: eventId, eventType, timestamp, correlationId, plus whatever
// entity-specific fields Payload serializes to.
type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlationId"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, correlationID string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}
