package telegram

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// Repository exposes persistence helpers for notification channels. The
// channel table is small admin configuration, so listings are unpaginated.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, channel *models.TelegramChannel) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.TelegramChannel, error)
	ListAll(ctx context.Context) ([]models.TelegramChannel, error)
	ListEnabledByKind(ctx context.Context, kind enums.TelegramChannelKind) ([]models.TelegramChannel, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a telegram channel repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, channel *models.TelegramChannel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TelegramChannel, error) {
	var channel models.TelegramChannel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.TelegramChannel, error) {
	var channels []models.TelegramChannel
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *repository) ListEnabledByKind(ctx context.Context, kind enums.TelegramChannelKind) ([]models.TelegramChannel, error) {
	var channels []models.TelegramChannel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND enabled = ?", kind, true).
		Order("created_at ASC").
		Find(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.TelegramChannel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.TelegramChannel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
