package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	UpdateFulfillment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	RecordBookingFailure(ctx context.Context, orderID uuid.UUID, message string) error
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, orderID uuid.UUID) error
	FindBusinessProfile(ctx context.Context) (*models.BusinessProfile, error)
	Stats(ctx context.Context) (*Stats, error)
}
