package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomjrm/ecomjrm-backend/pkg/types"
)

// AuditLog records admin actions against platform resources.
type AuditLog struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID    `gorm:"column:user_id;type:uuid;index"`
	Action     string        `gorm:"column:action;not null"`
	Resource   string        `gorm:"column:resource;not null"`
	ResourceID *string       `gorm:"column:resource_id"`
	Details    types.JSONMap `gorm:"column:details;type:jsonb;serializer:json"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime;index"`
}
