package telegram

import (
	"github.com/google/uuid"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// CreateInput carries the fields for a new notification channel.
type CreateInput struct {
	Name        string
	ChatID      string
	Kind        enums.TelegramChannelKind
	Enabled     bool
	ActorUserID uuid.UUID
}

// UpdateInput holds a partial update; nil fields are left untouched.
type UpdateInput struct {
	ID          uuid.UUID
	Name        *string
	ChatID      *string
	Kind        *enums.TelegramChannelKind
	Enabled     *bool
	ActorUserID uuid.UUID
}

// TestResult reports the outcome of a test message delivery.
type TestResult struct {
	ChannelID uuid.UUID `json:"channel_id"`
	ChatID    string    `json:"chat_id"`
	MessageID int64     `json:"message_id"`
}
