package registry

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/repairops-backend/pkg/config"
	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/outbox"
	"github.com/angelmondragon/repairops-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
// Quotation events go to the quotations topic and pendency events to the
// pendencies topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.QuotationsTopic == "" {
		return nil, fmt.Errorf("quotations topic is required")
	}
	if cfg.PendenciesTopic == "" {
		return nil, fmt.Errorf("pendencies topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	quotationsTopic := cfg.QuotationsTopic
	pendenciesTopic := cfg.PendenciesTopic

	reg.register(EventDescriptor{
		EventType:      enums.EventQuotationCreated,
		AggregateType:  enums.AggregateQuotation,
		Topic:          quotationsTopic,
		PayloadFactory: func() interface{} { return &payloads.QuotationCreatedEvent{} },
	})
	for _, eventType := range []enums.OutboxEventType{
		enums.EventQuotationClaimed,
		enums.EventQuotationQuoted,
		enums.EventQuotationApproved,
		enums.EventQuotationPurchased,
		enums.EventQuotationCancelled,
	} {
		reg.register(EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.AggregateQuotation,
			Topic:          quotationsTopic,
			PayloadFactory: func() interface{} { return &payloads.QuotationTransitionEvent{} },
		})
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventQuotationItemsEdited,
		AggregateType:  enums.AggregateQuotation,
		Topic:          quotationsTopic,
		PayloadFactory: func() interface{} { return &payloads.QuotationItemsEditedEvent{} },
	})
	reg.register(EventDescriptor{
		EventType:      enums.EventQuotationDeleted,
		AggregateType:  enums.AggregateQuotation,
		Topic:          quotationsTopic,
		PayloadFactory: func() interface{} { return &payloads.QuotationDeletedEvent{} },
	})

	reg.register(EventDescriptor{
		EventType:      enums.EventPendencyCreated,
		AggregateType:  enums.AggregateRegistrationPendency,
		Topic:          pendenciesTopic,
		PayloadFactory: func() interface{} { return &payloads.PendencyCreatedEvent{} },
	})
	for _, eventType := range []enums.OutboxEventType{
		enums.EventPendencyStarted,
		enums.EventPendencyAnswered,
		enums.EventPendencyCompleted,
		enums.EventPendencyRejected,
	} {
		reg.register(EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.AggregateRegistrationPendency,
			Topic:          pendenciesTopic,
			PayloadFactory: func() interface{} { return &payloads.PendencyTransitionEvent{} },
		})
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventPendencyDeleted,
		AggregateType:  enums.AggregateRegistrationPendency,
		Topic:          pendenciesTopic,
		PayloadFactory: func() interface{} { return &payloads.PendencyDeletedEvent{} },
	})

	return reg, nil
}

// Descriptors returns every registered descriptor.
func (r *EventRegistry) Descriptors() []EventDescriptor {
	out := make([]EventDescriptor, 0, len(r.entries))
	for _, desc := range r.entries {
		out = append(out, desc)
	}
	return out
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	if err := envelope.Validate(); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s envelope: %w", event.EventType, err))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
