package sequence

import (
	"context"
	"time"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"gorm.io/gorm"
)

const nextValueSQL = `
INSERT INTO sequence_counters (kind, last_value, updated_at)
VALUES (?, 1, ?)
ON CONFLICT (kind) DO UPDATE
SET last_value = sequence_counters.last_value + 1,
    updated_at = excluded.updated_at
RETURNING last_value`

// Allocator hands out per-kind display numbers. Next must run on the
// transaction that inserts the numbered aggregate; a rollback gives the value
// back.
type Allocator struct {
	now func() time.Time
}

func NewAllocator() *Allocator {
	return &Allocator{now: time.Now}
}

// Next increments the counter row for kind and returns the new value. The
// upsert takes a row lock, so concurrent callers on the same kind serialize.
func (a *Allocator) Next(ctx context.Context, tx *gorm.DB, kind enums.CounterKind) (int64, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "sequence allocation requires a transaction")
	}
	if !kind.IsValid() {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown counter kind %q", kind)
	}

	var value int64
	if err := tx.WithContext(ctx).Raw(nextValueSQL, string(kind), a.now().UTC()).Scan(&value).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate sequence number")
	}
	if value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "sequence allocation returned no value")
	}
	return value, nil
}

// Current reports the last value handed out for kind, zero when none was.
func (a *Allocator) Current(ctx context.Context, db *gorm.DB, kind enums.CounterKind) (int64, error) {
	if !kind.IsValid() {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown counter kind %q", kind)
	}
	var counter models.SequenceCounter
	err := db.WithContext(ctx).Where("kind = ?", kind).Limit(1).Find(&counter).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read sequence counter")
	}
	return counter.LastValue, nil
}
