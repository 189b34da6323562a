package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/repairops-backend/pkg/enums"
)

// Quotation is the aggregate root of a parts request. Items are loaded through
// the Items association and are never shared between quotations.
type Quotation struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SequenceNumber int64                 `gorm:"column:sequence_number;not null;uniqueIndex"`
	OrderRef       *string               `gorm:"column:order_ref"`
	BudgetRef      *string               `gorm:"column:budget_ref"`
	Client         *string               `gorm:"column:client"`
	Status         enums.QuotationStatus `gorm:"column:status;type:text;not null;default:'new'"`
	RequesterID    uuid.UUID             `gorm:"column:requester_id;type:uuid;not null"`
	BuyerID        *uuid.UUID            `gorm:"column:buyer_id;type:uuid"`
	Notes          *string               `gorm:"column:notes"`
	CancelReason   *string               `gorm:"column:cancel_reason"`
	QuotedAt       *time.Time            `gorm:"column:quoted_at"`
	ApprovedAt     *time.Time            `gorm:"column:approved_at"`
	ApprovedBy     *uuid.UUID            `gorm:"column:approved_by;type:uuid"`
	ApprovalNotes  *string               `gorm:"column:approval_notes"`
	PurchasedAt    *time.Time            `gorm:"column:purchased_at"`
	PurchasedBy    *uuid.UUID            `gorm:"column:purchased_by;type:uuid"`
	PurchaseNotes  *string               `gorm:"column:purchase_notes"`
	CancelledAt    *time.Time            `gorm:"column:cancelled_at"`
	CancelledBy    *uuid.UUID            `gorm:"column:cancelled_by;type:uuid"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	Items []QuotationItem `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
}
