package chatarchive

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// Config tunes batch sizes and retention windows for the archive manager.
type Config struct {
	DefaultRetentionDays    int
	BatchSize               int
	MaxBatchIDs             int
	AutoArchiveInactiveDays int
	AutoArchiveLimit        int
	PurgeLimit              int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultRetentionDays:    365,
		BatchSize:               100,
		MaxBatchIDs:             1000,
		AutoArchiveInactiveDays: 90,
		AutoArchiveLimit:        1000,
		PurgeLimit:              100,
	}
}

// ArchiveInput is one bulk archive request.
type ArchiveInput struct {
	SessionIDs         []string
	Reason             string
	ScheduledPurgeDate *time.Time
	ActorUserID        uuid.UUID
}

// RestoreInput is one bulk restore request.
type RestoreInput struct {
	SessionIDs  []string
	Reason      string
	RestoreTo   enums.ChatSessionStatus
	ActorUserID uuid.UUID
}

// BatchResult reports the outcome of a bulk archive or restore run.
// Per-batch failures land in Errors without aborting the remaining batches.
type BatchResult struct {
	Requested int      `json:"requested"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// PurgeResult reports what a purge run permanently deleted.
type PurgeResult struct {
	SessionsDeleted int64 `json:"sessions_deleted"`
	MessagesDeleted int64 `json:"messages_deleted"`
}

// StatsResult aggregates session counts for the admin console.
type StatsResult struct {
	Total            int64                             `json:"total"`
	CountsByStatus   map[enums.ChatSessionStatus]int64 `json:"counts_by_status"`
	Archived         int64                             `json:"archived"`
	EligibleForPurge int64                             `json:"eligible_for_purge"`
}

// Filters narrows chat session listings.
type Filters struct {
	Status *enums.ChatSessionStatus
	Query  string
}

// List is one page of sessions plus the cursor for the next page.
type List struct {
	Sessions   []models.ChatSession `json:"sessions"`
	NextCursor *string              `json:"next_cursor,omitempty"`
}
