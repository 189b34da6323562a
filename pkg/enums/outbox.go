package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateQuotation            OutboxAggregateType = "quotation"
	AggregateRegistrationPendency OutboxAggregateType = "registration_pendency"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateQuotation,
	AggregateRegistrationPendency,
}

func (a OutboxAggregateType) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventQuotationCreated     OutboxEventType = "quotation_created"
	EventQuotationClaimed     OutboxEventType = "quotation_claimed"
	EventQuotationQuoted      OutboxEventType = "quotation_quoted"
	EventQuotationApproved    OutboxEventType = "quotation_approved"
	EventQuotationPurchased   OutboxEventType = "quotation_purchased"
	EventQuotationCancelled   OutboxEventType = "quotation_cancelled"
	EventQuotationItemsEdited OutboxEventType = "quotation_items_edited"
	EventQuotationDeleted     OutboxEventType = "quotation_deleted"

	EventPendencyCreated   OutboxEventType = "pendency_created"
	EventPendencyStarted   OutboxEventType = "pendency_started"
	EventPendencyAnswered  OutboxEventType = "pendency_answered"
	EventPendencyCompleted OutboxEventType = "pendency_completed"
	EventPendencyRejected  OutboxEventType = "pendency_rejected"
	EventPendencyDeleted   OutboxEventType = "pendency_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventQuotationCreated,
	EventQuotationClaimed,
	EventQuotationQuoted,
	EventQuotationApproved,
	EventQuotationPurchased,
	EventQuotationCancelled,
	EventQuotationItemsEdited,
	EventQuotationDeleted,
	EventPendencyCreated,
	EventPendencyStarted,
	EventPendencyAnswered,
	EventPendencyCompleted,
	EventPendencyRejected,
	EventPendencyDeleted,
}

// OutboxEventTypes returns every event type the services emit.
func OutboxEventTypes() []OutboxEventType {
	out := make([]OutboxEventType, len(validOutboxEventTypes))
	copy(out, validOutboxEventTypes)
	return out
}

func (e OutboxEventType) String() string {
	return string(e)
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
