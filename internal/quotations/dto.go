package quotations

import (
	"time"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the identity supplied by the auth boundary for a call.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// HeaderInput carries the identifying fields of a new quotation.
type HeaderInput struct {
	OrderRef  *string
	BudgetRef *string
	Client    *string
	Notes     *string
}

// ItemInput describes an item to add, or to update when ID is set.
type ItemInput struct {
	ID                *uuid.UUID
	PartCode          string
	Description       string
	Quantity          int
	UnitPrice         *decimal.Decimal
	DeliveryTerm      *string
	Supplier          *string
	Notes             *string
	NeedsRegistration bool
	CatalogCode       *string
}

type CreateInput struct {
	Header HeaderInput
	Items  []ItemInput
	Actor  Actor
}

// CreateResult reports the assigned number and how many submitted items were
// dropped for failing validation.
type CreateResult struct {
	ID             uuid.UUID             `json:"id"`
	SequenceNumber int64                 `json:"sequence_number"`
	Status         enums.QuotationStatus `json:"status"`
	ItemCount      int                   `json:"item_count"`
	DroppedItems   int                   `json:"dropped_items"`
}

type ClaimInput struct {
	QuotationID uuid.UUID
	Actor       Actor
}

// ItemResponse is the buyer's pricing answer for one item.
type ItemResponse struct {
	ItemID       uuid.UUID
	UnitPrice    *decimal.Decimal
	DeliveryTerm *string
	Supplier     *string
	CatalogCode  *string
	Notes        *string
}

type QuoteInput struct {
	QuotationID uuid.UUID
	Actor       Actor
	Items       []ItemResponse
	Notes       *string
}

type ApproveInput struct {
	QuotationID uuid.UUID
	Actor       Actor
	Notes       *string
}

type PurchaseInput struct {
	QuotationID uuid.UUID
	Actor       Actor
	Notes       *string
}

type CancelInput struct {
	QuotationID uuid.UUID
	Actor       Actor
	Reason      string
}

// EditItemsInput merges Items into the collection and drops RemovedItemIDs.
// Notes replaces the header notes when set.
type EditItemsInput struct {
	QuotationID    uuid.UUID
	Actor          Actor
	Items          []ItemInput
	RemovedItemIDs []uuid.UUID
	Notes          *string
}

type DeleteInput struct {
	QuotationID uuid.UUID
	Actor       Actor
}

// ListFilters narrows quotation listings. Terminal statuses are hidden unless
// IncludeHistory is set or Status names one explicitly.
type ListFilters struct {
	Status         *enums.QuotationStatus
	RequesterID    *uuid.UUID
	BuyerID        *uuid.UUID
	Query          string
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeHistory bool
}

// ItemDetail is the read view of an item with its derived line total.
type ItemDetail struct {
	ID                uuid.UUID        `json:"id"`
	Position          int              `json:"position"`
	PartCode          string           `json:"part_code"`
	Description       string           `json:"description"`
	Quantity          int              `json:"quantity"`
	UnitPrice         *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal         decimal.Decimal  `json:"line_total"`
	DeliveryTerm      *string          `json:"delivery_term,omitempty"`
	Supplier          *string          `json:"supplier,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	NeedsRegistration bool             `json:"needs_registration"`
	CatalogCode       *string          `json:"catalog_code,omitempty"`
}

// QuotationDetail is the full read view returned by Get and every transition.
type QuotationDetail struct {
	ID             uuid.UUID             `json:"id"`
	SequenceNumber int64                 `json:"sequence_number"`
	OrderRef       *string               `json:"order_ref,omitempty"`
	BudgetRef      *string               `json:"budget_ref,omitempty"`
	Client         *string               `json:"client,omitempty"`
	Status         enums.QuotationStatus `json:"status"`
	RequesterID    uuid.UUID             `json:"requester_id"`
	BuyerID        *uuid.UUID            `json:"buyer_id,omitempty"`
	Notes          *string               `json:"notes,omitempty"`
	CancelReason   *string               `json:"cancel_reason,omitempty"`
	QuotedAt       *time.Time            `json:"quoted_at,omitempty"`
	ApprovedAt     *time.Time            `json:"approved_at,omitempty"`
	ApprovedBy     *uuid.UUID            `json:"approved_by,omitempty"`
	ApprovalNotes  *string               `json:"approval_notes,omitempty"`
	PurchasedAt    *time.Time            `json:"purchased_at,omitempty"`
	PurchasedBy    *uuid.UUID            `json:"purchased_by,omitempty"`
	PurchaseNotes  *string               `json:"purchase_notes,omitempty"`
	CancelledAt    *time.Time            `json:"cancelled_at,omitempty"`
	CancelledBy    *uuid.UUID            `json:"cancelled_by,omitempty"`
	Items          []ItemDetail          `json:"items"`
	Total          decimal.Decimal       `json:"total"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// QuotationSummary is a list row.
type QuotationSummary struct {
	ID             uuid.UUID             `json:"id"`
	SequenceNumber int64                 `json:"sequence_number"`
	OrderRef       *string               `json:"order_ref,omitempty"`
	BudgetRef      *string               `json:"budget_ref,omitempty"`
	Client         *string               `json:"client,omitempty"`
	Status         enums.QuotationStatus `json:"status"`
	RequesterID    uuid.UUID             `json:"requester_id"`
	BuyerID        *uuid.UUID            `json:"buyer_id,omitempty"`
	ItemCount      int                   `json:"item_count"`
	Total          decimal.Decimal       `json:"total"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// QuotationList is a page of quotations.
type QuotationList struct {
	Quotations []QuotationSummary `json:"quotations"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func toItemDetail(item models.QuotationItem) ItemDetail {
	detail := ItemDetail{
		ID:                item.ID,
		Position:          item.Position,
		PartCode:          item.PartCode,
		Description:       item.Description,
		Quantity:          item.Quantity,
		LineTotal:         LineTotal(item),
		DeliveryTerm:      item.DeliveryTerm,
		Supplier:          item.Supplier,
		Notes:             item.Notes,
		NeedsRegistration: item.NeedsRegistration,
		CatalogCode:       item.CatalogCode,
	}
	if item.UnitPrice.Valid {
		price := item.UnitPrice.Decimal
		detail.UnitPrice = &price
	}
	return detail
}

func toDetail(q *models.Quotation) *QuotationDetail {
	items := make([]ItemDetail, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, toItemDetail(item))
	}
	return &QuotationDetail{
		ID:             q.ID,
		SequenceNumber: q.SequenceNumber,
		OrderRef:       q.OrderRef,
		BudgetRef:      q.BudgetRef,
		Client:         q.Client,
		Status:         q.Status,
		RequesterID:    q.RequesterID,
		BuyerID:        q.BuyerID,
		Notes:          q.Notes,
		CancelReason:   q.CancelReason,
		QuotedAt:       q.QuotedAt,
		ApprovedAt:     q.ApprovedAt,
		ApprovedBy:     q.ApprovedBy,
		ApprovalNotes:  q.ApprovalNotes,
		PurchasedAt:    q.PurchasedAt,
		PurchasedBy:    q.PurchasedBy,
		PurchaseNotes:  q.PurchaseNotes,
		CancelledAt:    q.CancelledAt,
		CancelledBy:    q.CancelledBy,
		Items:          items,
		Total:          Total(q.Items),
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func toSummary(q models.Quotation) QuotationSummary {
	return QuotationSummary{
		ID:             q.ID,
		SequenceNumber: q.SequenceNumber,
		OrderRef:       q.OrderRef,
		BudgetRef:      q.BudgetRef,
		Client:         q.Client,
		Status:         q.Status,
		RequesterID:    q.RequesterID,
		BuyerID:        q.BuyerID,
		ItemCount:      len(q.Items),
		Total:          Total(q.Items),
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}
