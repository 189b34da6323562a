package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/repairops-backend/pkg/enums"
)

// RegistrationPendency asks procurement to register a new part in the catalog.
type RegistrationPendency struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SequenceNumber int64                `gorm:"column:sequence_number;not null;uniqueIndex"`
	PartCode       string               `gorm:"column:part_code;not null"`
	Description    string               `gorm:"column:description;not null"`
	Brand          *string              `gorm:"column:brand"`
	Notes          *string              `gorm:"column:notes"`
	AttachmentRef  *string              `gorm:"column:attachment_ref"`
	GroupLabel     *string              `gorm:"column:group_label"`
	Status         enums.PendencyStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RequesterID    uuid.UUID            `gorm:"column:requester_id;type:uuid;not null"`
	ResolverID     *uuid.UUID           `gorm:"column:resolver_id;type:uuid"`
	CatalogCode    *string              `gorm:"column:catalog_code"`
	RejectReason   *string              `gorm:"column:reject_reason"`
	StartedAt      *time.Time           `gorm:"column:started_at"`
	AnsweredAt     *time.Time           `gorm:"column:answered_at"`
	CompletedAt    *time.Time           `gorm:"column:completed_at"`
	RejectedAt     *time.Time           `gorm:"column:rejected_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (RegistrationPendency) TableName() string {
	return "registration_pendencies"
}
