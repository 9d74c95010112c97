package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a single product line within an order.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	SKU          string          `gorm:"column:sku;not null"`
	Name         string          `gorm:"column:name;not null"`
	Qty          int             `gorm:"column:qty;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	MemberPriced bool            `gorm:"column:member_priced;not null;default:false"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	WeightKG     decimal.Decimal `gorm:"column:weight_kg;type:numeric(8,3);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
