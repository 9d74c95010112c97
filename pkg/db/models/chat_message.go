package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a single message within a chat session. Rows are removed
// ahead of their session during purge so no orphans survive.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID uuid.UUID `gorm:"column:session_id;type:uuid;not null;index"`
	Sender    string    `gorm:"column:sender;not null"`
	Body      string    `gorm:"column:body;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
