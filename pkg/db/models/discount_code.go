package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// DiscountCode is an admin-created promotion consumed at checkout.
// MemberOnly codes double as member promotions.
type DiscountCode struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;not null;uniqueIndex"`
	Description   *string            `gorm:"column:description"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	Value         decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MinOrderTotal decimal.Decimal    `gorm:"column:min_order_total;type:numeric(12,2);not null;default:0"`
	MaxDiscount   *decimal.Decimal   `gorm:"column:max_discount;type:numeric(12,2)"`
	UsageLimit    *int               `gorm:"column:usage_limit"`
	UsageCount    int                `gorm:"column:usage_count;not null;default:0"`
	StartsAt      *time.Time         `gorm:"column:starts_at"`
	ExpiresAt     *time.Time         `gorm:"column:expires_at"`
	MemberOnly    bool               `gorm:"column:member_only;not null;default:false"`
	Active        bool               `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// IsCurrent reports whether the code is inside its validity window.
func (d *DiscountCode) IsCurrent(now time.Time) bool {
	if d == nil || !d.Active {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return false
	}
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return false
	}
	return true
}
