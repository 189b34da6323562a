package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/repairops-backend/pkg/enums"
)

// EnvelopeVersion is written into every new envelope.
const EnvelopeVersion = 1

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is what outbox_events.payload holds and what subscribers
// receive as the message body. It repeats the routing fields so a consumer can
// work from the body alone.
type PayloadEnvelope struct {
	Version       int                       `json:"version"`
	EventID       string                    `json:"eventId"`
	EventType     enums.OutboxEventType     `json:"eventType,omitempty"`
	AggregateType enums.OutboxAggregateType `json:"aggregateType,omitempty"`
	AggregateID   string                    `json:"aggregateId,omitempty"`
	OccurredAt    time.Time                 `json:"occurredAt"`
	Actor         *ActorRef                 `json:"actor,omitempty"`
	Data          json.RawMessage           `json:"data"`
}

// Validate checks the fields every consumer relies on.
func (e PayloadEnvelope) Validate() error {
	if e.Version < 1 || e.Version > EnvelopeVersion {
		return errors.New("unsupported envelope version")
	}
	if _, err := uuid.Parse(e.EventID); err != nil {
		return errors.New("envelope event id must be a uuid")
	}
	if e.OccurredAt.IsZero() {
		return errors.New("envelope occurredAt is required")
	}
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errors.New("envelope data is required")
	}
	return nil
}
