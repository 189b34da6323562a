package models

import (
	"time"

	"github.com/angelmondragon/repairops-backend/pkg/enums"
)

// SequenceCounter holds the last display number handed out for a kind.
type SequenceCounter struct {
	Kind      enums.CounterKind `gorm:"column:kind;type:text;primaryKey"`
	LastValue int64             `gorm:"column:last_value;not null;default:0"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
