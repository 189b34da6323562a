package quotations

import (
	"context"
	"time"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for quotations and their items.
// Status writes are compare-and-swap: they report false when the row no longer
// holds the expected status.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quotation *models.Quotation) error
	CreateItems(ctx context.Context, items []models.QuotationItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Quotation, error)
	UpdateIfStatus(ctx context.Context, id uuid.UUID, expected enums.QuotationStatus, updates map[string]any) (bool, error)
	ClaimIfUnclaimed(ctx context.Context, id uuid.UUID, expected enums.QuotationStatus, buyerID uuid.UUID, at time.Time) (bool, error)
	UpdateItem(ctx context.Context, quotationID, itemID uuid.UUID, updates map[string]any) error
	DeleteItems(ctx context.Context, quotationID uuid.UUID, itemIDs []uuid.UUID) error
	DeleteIfStatus(ctx context.Context, id uuid.UUID, expected enums.QuotationStatus) (bool, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*QuotationList, error)
	CountByStatus(ctx context.Context) (map[enums.QuotationStatus]int64, error)
}
