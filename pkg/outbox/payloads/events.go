package payloads

import (
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationCreatedEvent announces a new quotation waiting for a buyer.
type QuotationCreatedEvent struct {
	QuotationID    uuid.UUID `json:"quotation_id"`
	SequenceNumber int64     `json:"sequence_number"`
	RequesterID    uuid.UUID `json:"requester_id"`
	ItemCount      int       `json:"item_count"`
	DroppedItems   int       `json:"dropped_items"`
}

// QuotationTransitionEvent is emitted for every status change after creation.
type QuotationTransitionEvent struct {
	QuotationID    uuid.UUID             `json:"quotation_id"`
	SequenceNumber int64                 `json:"sequence_number"`
	From           enums.QuotationStatus `json:"from"`
	To             enums.QuotationStatus `json:"to"`
	RequesterID    uuid.UUID             `json:"requester_id"`
	BuyerID        *uuid.UUID            `json:"buyer_id,omitempty"`
	Total          *decimal.Decimal      `json:"total,omitempty"`
	Notes          *string               `json:"notes,omitempty"`
	Reason         *string               `json:"reason,omitempty"`
}

// QuotationItemsEditedEvent summarizes an item merge.
type QuotationItemsEditedEvent struct {
	QuotationID    uuid.UUID             `json:"quotation_id"`
	SequenceNumber int64                 `json:"sequence_number"`
	Status         enums.QuotationStatus `json:"status"`
	Added          int                   `json:"added"`
	Updated        int                   `json:"updated"`
	Removed        int                   `json:"removed"`
	ItemCount      int                   `json:"item_count"`
}

// QuotationDeletedEvent tells consumers to forget a never-claimed quotation.
type QuotationDeletedEvent struct {
	QuotationID    uuid.UUID `json:"quotation_id"`
	SequenceNumber int64     `json:"sequence_number"`
	RequesterID    uuid.UUID `json:"requester_id"`
}

// PendencyCreatedEvent announces a catalog registration request.
type PendencyCreatedEvent struct {
	PendencyID     uuid.UUID `json:"pendency_id"`
	SequenceNumber int64     `json:"sequence_number"`
	PartCode       string    `json:"part_code"`
	GroupLabel     *string   `json:"group_label,omitempty"`
	RequesterID    uuid.UUID `json:"requester_id"`
}

// PendencyTransitionEvent is emitted for every pendency status change.
type PendencyTransitionEvent struct {
	PendencyID     uuid.UUID            `json:"pendency_id"`
	SequenceNumber int64                `json:"sequence_number"`
	From           enums.PendencyStatus `json:"from"`
	To             enums.PendencyStatus `json:"to"`
	RequesterID    uuid.UUID            `json:"requester_id"`
	ResolverID     *uuid.UUID           `json:"resolver_id,omitempty"`
	CatalogCode    *string              `json:"catalog_code,omitempty"`
	Reason         *string              `json:"reason,omitempty"`
}

// PendencyDeletedEvent tells consumers a pendency was withdrawn.
type PendencyDeletedEvent struct {
	PendencyID     uuid.UUID `json:"pendency_id"`
	SequenceNumber int64     `json:"sequence_number"`
	RequesterID    uuid.UUID `json:"requester_id"`
}
