package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
)

const (
	defaultDLQLimit = 50
	maxDLQLimit     = 200
)

// DLQFilter narrows a dead-letter listing. Zero values match everything.
type DLQFilter struct {
	AggregateType *enums.OutboxAggregateType
	AggregateID   *uuid.UUID
	Reason        *enums.OutboxDLQErrorReason
	Limit         int
}

// DLQRepository stores outbox events the publisher stopped retrying.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx parks entry inside the publisher's transaction so the source row
// and its dead letter change together.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.EventID == uuid.Nil {
		return errors.New("dlq entry requires an event id")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ErrorMessage != nil {
		msg := truncateMessage(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

// FindByEventID returns nil when the event was never dead-lettered.
func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the newest dead letters first.
func (r *DLQRepository) List(ctx context.Context, filter DLQFilter) ([]models.OutboxDLQ, error) {
	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = defaultDLQLimit
	case limit > maxDLQLimit:
		limit = maxDLQLimit
	}

	query := r.db.WithContext(ctx).Model(&models.OutboxDLQ{})
	if filter.AggregateType != nil {
		query = query.Where("aggregate_type = ?", *filter.AggregateType)
	}
	if filter.AggregateID != nil {
		query = query.Where("aggregate_id = ?", *filter.AggregateID)
	}
	if filter.Reason != nil {
		query = query.Where("error_reason = ?", *filter.Reason)
	}

	var rows []models.OutboxDLQ
	err := query.Order("failed_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// Count backs the dead-letter backlog gauge.
func (r *DLQRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OutboxDLQ{}).Count(&count).Error
	return count, err
}

// DeleteFailedBefore purges dead letters that failed before cutoff.
func (r *DLQRepository) DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("failed_at < ?", cutoff.UTC()).Delete(&models.OutboxDLQ{})
	return res.RowsAffected, res.Error
}
