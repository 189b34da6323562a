package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationItem is one requested part. Line totals are derived on read and
// never stored.
type QuotationItem struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID       uuid.UUID           `gorm:"column:quotation_id;type:uuid;not null"`
	Position          int                 `gorm:"column:position;not null;default:0"`
	PartCode          string              `gorm:"column:part_code;not null"`
	Description       string              `gorm:"column:description;not null"`
	Quantity          int                 `gorm:"column:quantity;not null"`
	UnitPrice         decimal.NullDecimal `gorm:"column:unit_price;type:numeric(12,2)"`
	DeliveryTerm      *string             `gorm:"column:delivery_term"`
	Supplier          *string             `gorm:"column:supplier"`
	Notes             *string             `gorm:"column:notes"`
	NeedsRegistration bool                `gorm:"column:needs_registration;not null;default:false"`
	CatalogCode       *string             `gorm:"column:catalog_code"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
