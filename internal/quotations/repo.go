package quotations

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var historyStatuses = []enums.QuotationStatus{
	enums.QuotationStatusPurchased,
	enums.QuotationStatusCancelled,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quotations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, quotation *models.Quotation) error {
	if quotation.ID == uuid.Nil {
		quotation.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(quotation).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.QuotationItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	var quotation models.Quotation
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("id = ?", id).
		First(&quotation).Error
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

// FindByIDForUpdate locks the quotation row for the rest of the transaction.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	var quotation models.Quotation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&quotation).Error
	if err != nil {
		return nil, err
	}
	if err := orderItems(r.db.WithContext(ctx)).
		Where("quotation_id = ?", id).
		Find(&quotation.Items).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, expected enums.QuotationStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Quotation{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ClaimIfUnclaimed(ctx context.Context, id uuid.UUID, expected enums.QuotationStatus, buyerID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Quotation{}).
		Where("id = ? AND status = ? AND buyer_id IS NULL", id, expected).
		Updates(map[string]any{
			"status":     enums.QuotationStatusQuoting,
			"buyer_id":   buyerID,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateItem(ctx context.Context, quotationID, itemID uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.QuotationItem{}).
		Where("id = ? AND quotation_id = ?", itemID, quotationID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteItems(ctx context.Context, quotationID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("quotation_id = ? AND id IN ?", quotationID, itemIDs).
		Delete(&models.QuotationItem{}).Error
}

func (r *repository) DeleteIfStatus(ctx context.Context, id uuid.UUID, expected enums.QuotationStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, expected).
		Delete(&models.Quotation{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := r.db.WithContext(ctx).
		Where("quotation_id = ?", id).
		Delete(&models.QuotationItem{}).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*QuotationList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Quotation{})
	switch {
	case filters.Status != nil:
		query = query.Where("status = ?", *filters.Status)
	case !filters.IncludeHistory:
		query = query.Where("status NOT IN ?", historyStatuses)
	}
	if filters.RequesterID != nil {
		query = query.Where("requester_id = ?", *filters.RequesterID)
	}
	if filters.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filters.BuyerID)
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

	var rows []models.Quotation
	if err := query.
		Preload("Items", orderItems).
		Scopes(pagination.Keyset(cursor, limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	rows, next := pagination.Page(rows, limit, func(row models.Quotation) pagination.Cursor {
		return pagination.Cursor{SequenceNumber: row.SequenceNumber, ID: row.ID}
	})
	list := &QuotationList{Quotations: make([]QuotationSummary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Quotations = append(list.Quotations, toSummary(row))
	}
	return list, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.QuotationStatus]int64, error) {
	var rows []struct {
		Status enums.QuotationStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Quotation{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.QuotationStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// freeTextClause matches the header references, notes and item texts, and the
// display number when the term is numeric.
func freeTextClause(db *gorm.DB, term string) *gorm.DB {
	like := "%" + term + "%"
	clauseDB := db.Session(&gorm.Session{NewDB: true}).
		Where("LOWER(COALESCE(order_ref, '')) LIKE ?", like).
		Or("LOWER(COALESCE(budget_ref, '')) LIKE ?", like).
		Or("LOWER(COALESCE(client, '')) LIKE ?", like).
		Or("LOWER(COALESCE(notes, '')) LIKE ?", like).
		Or("EXISTS (SELECT 1 FROM quotation_items qi WHERE qi.quotation_id = quotations.id AND (LOWER(qi.part_code) LIKE ? OR LOWER(qi.description) LIKE ?))", like, like)
	if number, err := strconv.ParseInt(strings.TrimPrefix(term, "#"), 10, 64); err == nil {
		clauseDB = clauseDB.Or("sequence_number = ?", number)
	}
	return clauseDB
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}
