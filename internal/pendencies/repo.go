package pendencies

import (
	"context"
	"strconv"
	"strings"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var historyStatuses = []enums.PendencyStatus{
	enums.PendencyStatusCompleted,
	enums.PendencyStatusRejected,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pendencies repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pendency *models.RegistrationPendency) error {
	if pendency.ID == uuid.Nil {
		pendency.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(pendency).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RegistrationPendency, error) {
	var pendency models.RegistrationPendency
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pendency).Error; err != nil {
		return nil, err
	}
	return &pendency, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RegistrationPendency, error) {
	var pendency models.RegistrationPendency
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&pendency).Error; err != nil {
		return nil, err
	}
	return &pendency, nil
}

func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, expected enums.PendencyStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RegistrationPendency{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DeleteIfStatus(ctx context.Context, id uuid.UUID, expected enums.PendencyStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, expected).
		Delete(&models.RegistrationPendency{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*PendencyList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.RegistrationPendency{})
	switch {
	case filters.Status != nil:
		query = query.Where("status = ?", *filters.Status)
	case !filters.IncludeHistory:
		query = query.Where("status NOT IN ?", historyStatuses)
	}
	if filters.RequesterID != nil {
		query = query.Where("requester_id = ?", *filters.RequesterID)
	}
	if filters.ResolverID != nil {
		query = query.Where("resolver_id = ?", *filters.ResolverID)
	}
	if filters.GroupLabel != nil {
		query = query.Where("group_label = ?", *filters.GroupLabel)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", filters.DateFrom.UTC())
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", filters.DateTo.UTC())
	}
	if term := strings.ToLower(strings.TrimSpace(filters.Query)); term != "" {
		query = query.Where(freeTextClause(r.db, term))
	}

	var rows []models.RegistrationPendency
	if err := query.
		Scopes(pagination.Keyset(cursor, limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	rows, next := pagination.Page(rows, limit, func(row models.RegistrationPendency) pagination.Cursor {
		return pagination.Cursor{SequenceNumber: row.SequenceNumber, ID: row.ID}
	})
	list := &PendencyList{Pendencies: make([]PendencyDetail, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Pendencies = append(list.Pendencies, toDetail(row))
	}
	return list, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.PendencyStatus]int64, error) {
	var rows []struct {
		Status enums.PendencyStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.RegistrationPendency{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.PendencyStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func freeTextClause(db *gorm.DB, term string) *gorm.DB {
	like := "%" + term + "%"
	clauseDB := db.Session(&gorm.Session{NewDB: true}).
		Where("LOWER(part_code) LIKE ?", like).
		Or("LOWER(description) LIKE ?", like).
		Or("LOWER(COALESCE(brand, '')) LIKE ?", like).
		Or("LOWER(COALESCE(group_label, '')) LIKE ?", like).
		Or("LOWER(COALESCE(notes, '')) LIKE ?", like).
		Or("LOWER(COALESCE(catalog_code, '')) LIKE ?", like)
	if number, err := strconv.ParseInt(strings.TrimPrefix(term, "#"), 10, 64); err == nil {
		clauseDB = clauseDB.Or("sequence_number = ?", number)
	}
	return clauseDB
}
