package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

// Repository exposes persistence helpers for audit log entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
