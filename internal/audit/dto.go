package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
)

// Entry is one admin action to record.
type Entry struct {
	ActorUserID uuid.UUID
	Action      string
	Resource    string
	ResourceID  string
	Details     map[string]any
}

// Filters narrows audit log listings.
type Filters struct {
	Action   string
	Resource string
	From     *time.Time
	To       *time.Time
}

// List is one page of audit entries plus the cursor for the next page.
type List struct {
	Entries    []models.AuditLog `json:"entries"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}
