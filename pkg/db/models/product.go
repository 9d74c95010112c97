package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// Product is a catalog entry with a two-tier price: members always pay
// less than the regular price.
type Product struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU          string              `gorm:"column:sku;not null;uniqueIndex"`
	Slug         string              `gorm:"column:slug;not null;uniqueIndex"`
	Name         string              `gorm:"column:name;not null"`
	Description  *string             `gorm:"column:description"`
	RegularPrice decimal.Decimal     `gorm:"column:regular_price;type:numeric(12,2);not null"`
	MemberPrice  decimal.Decimal     `gorm:"column:member_price;type:numeric(12,2);not null"`
	Stock        int                 `gorm:"column:stock;not null;default:0"`
	WeightKG     decimal.Decimal     `gorm:"column:weight_kg;type:numeric(8,3);not null;default:0"`
	ImageURL     *string             `gorm:"column:image_url"`
	Status       enums.ProductStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
