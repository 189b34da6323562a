package pendencies

import (
	"context"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for registration pendencies.
// Status writes report false when the row no longer holds the expected status.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pendency *models.RegistrationPendency) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RegistrationPendency, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RegistrationPendency, error)
	UpdateIfStatus(ctx context.Context, id uuid.UUID, expected enums.PendencyStatus, updates map[string]any) (bool, error)
	DeleteIfStatus(ctx context.Context, id uuid.UUID, expected enums.PendencyStatus) (bool, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*PendencyList, error)
	CountByStatus(ctx context.Context) (map[enums.PendencyStatus]int64, error)
}
