package pendencies

import (
	"time"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the identity supplied by the auth boundary for a call.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// PartInput describes one part that needs a catalog entry.
type PartInput struct {
	PartCode      string
	Description   string
	Brand         *string
	Notes         *string
	AttachmentRef *string
}

type CreateInput struct {
	Part  PartInput
	Actor Actor
}

// CreateGroupInput registers several parts of one machine or component. Each
// part becomes its own pendency; Notes is prepended to every part's notes.
type CreateGroupInput struct {
	GroupLabel string
	Notes      *string
	Parts      []PartInput
	Actor      Actor
}

type StartInput struct {
	PendencyID uuid.UUID
	Actor      Actor
}

type AnswerInput struct {
	PendencyID  uuid.UUID
	Actor       Actor
	CatalogCode string
	Notes       *string
}

type CompleteInput struct {
	PendencyID uuid.UUID
	Actor      Actor
}

type RejectInput struct {
	PendencyID uuid.UUID
	Actor      Actor
	Reason     string
}

type DeleteInput struct {
	PendencyID uuid.UUID
	Actor      Actor
}

// ListFilters narrows pendency listings. Completed and rejected pendencies are
// hidden unless IncludeHistory is set or Status names one.
type ListFilters struct {
	Status         *enums.PendencyStatus
	RequesterID    *uuid.UUID
	ResolverID     *uuid.UUID
	GroupLabel     *string
	Query          string
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeHistory bool
}

type PendencyDetail struct {
	ID             uuid.UUID            `json:"id"`
	SequenceNumber int64                `json:"sequence_number"`
	PartCode       string               `json:"part_code"`
	Description    string               `json:"description"`
	Brand          *string              `json:"brand,omitempty"`
	Notes          *string              `json:"notes,omitempty"`
	AttachmentRef  *string              `json:"attachment_ref,omitempty"`
	GroupLabel     *string              `json:"group_label,omitempty"`
	Status         enums.PendencyStatus `json:"status"`
	RequesterID    uuid.UUID            `json:"requester_id"`
	ResolverID     *uuid.UUID           `json:"resolver_id,omitempty"`
	CatalogCode    *string              `json:"catalog_code,omitempty"`
	RejectReason   *string              `json:"reject_reason,omitempty"`
	StartedAt      *time.Time           `json:"started_at,omitempty"`
	AnsweredAt     *time.Time           `json:"answered_at,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	RejectedAt     *time.Time           `json:"rejected_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type GroupResult struct {
	GroupLabel string           `json:"group_label"`
	Pendencies []PendencyDetail `json:"pendencies"`
}

type PendencyList struct {
	Pendencies []PendencyDetail `json:"pendencies"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func toDetail(p models.RegistrationPendency) PendencyDetail {
	return PendencyDetail{
		ID:             p.ID,
		SequenceNumber: p.SequenceNumber,
		PartCode:       p.PartCode,
		Description:    p.Description,
		Brand:          p.Brand,
		Notes:          p.Notes,
		AttachmentRef:  p.AttachmentRef,
		GroupLabel:     p.GroupLabel,
		Status:         p.Status,
		RequesterID:    p.RequesterID,
		ResolverID:     p.ResolverID,
		CatalogCode:    p.CatalogCode,
		RejectReason:   p.RejectReason,
		StartedAt:      p.StartedAt,
		AnsweredAt:     p.AnsweredAt,
		CompletedAt:    p.CompletedAt,
		RejectedAt:     p.RejectedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
