package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	"github.com/ecomjrm/ecomjrm-backend/pkg/types"
)

// Metadata keys stamped by the archive manager.
const (
	ChatMetaOriginalStatus = "original_status"
	ChatMetaArchiveReason  = "archive_reason"
	ChatMetaRestorations   = "restorations"
)

// ChatSession is a support chat conversation. Guest sessions carry contact
// fields directly; authenticated sessions link to a user.
type ChatSession struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID      string                  `gorm:"column:session_id;not null;uniqueIndex"`
	UserID         *uuid.UUID              `gorm:"column:user_id;type:uuid;index"`
	GuestEmail     *string                 `gorm:"column:guest_email"`
	GuestPhone     *string                 `gorm:"column:guest_phone"`
	Status         enums.ChatSessionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Metadata       types.JSONMap           `gorm:"column:metadata;type:jsonb;serializer:json"`
	LastActivity   time.Time               `gorm:"column:last_activity;not null"`
	ArchivedAt     *time.Time              `gorm:"column:archived_at"`
	RetentionUntil *time.Time              `gorm:"column:retention_until"`
	Messages       []ChatMessage           `gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGuest reports whether the session has no linked user account.
func (s *ChatSession) IsGuest() bool {
	return s != nil && s.UserID == nil
}

// WithinRetention reports whether the session can still be restored.
func (s *ChatSession) WithinRetention(now time.Time) bool {
	if s == nil || s.RetentionUntil == nil {
		return false
	}
	return s.RetentionUntil.After(now)
}
