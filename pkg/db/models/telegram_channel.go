package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// TelegramChannel is an admin-configured destination for bot notifications.
type TelegramChannel struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string                    `gorm:"column:name;not null"`
	ChatID    string                    `gorm:"column:chat_id;not null;uniqueIndex"`
	Kind      enums.TelegramChannelKind `gorm:"column:kind;type:text;not null;default:'orders'"`
	Enabled   bool                      `gorm:"column:enabled;not null;default:true"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
