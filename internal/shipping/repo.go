package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
)

// Repository persists the business profile. A single row is expected;
// Find always returns the oldest one.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context) (*models.BusinessProfile, error)
	Save(ctx context.Context, profile *models.BusinessProfile) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipping settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) Save(ctx context.Context, profile *models.BusinessProfile) error {
	if profile.ID == uuid.Nil {
		return r.db.WithContext(ctx).Create(profile).Error
	}
	return r.db.WithContext(ctx).Save(profile).Error
}
