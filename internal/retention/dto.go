package retention

import (
	"time"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// JobStatus is the terminal state of one policy execution.
type JobStatus string

const (
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobRecord summarizes one policy execution. Failures are recorded here
// rather than returned; nothing retries automatically.
type JobRecord struct {
	Policy      string    `json:"policy"`
	Status      JobStatus `json:"status"`
	Archived    int       `json:"archived"`
	Purged      int64     `json:"purged"`
	Processed   int64     `json:"processed"`
	Errors      []string  `json:"errors,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// ComplianceResult scores how far the archive lags behind policy.
type ComplianceResult struct {
	Score             int       `json:"score"`
	OverdueForArchive int64     `json:"overdue_for_archive"`
	OverdueForPurge   int64     `json:"overdue_for_purge"`
	Warnings          []string  `json:"warnings,omitempty"`
	CheckedAt         time.Time `json:"checked_at"`
}

// Recommendation is one advisory next action. The suggested date is
// informational only; no scheduler acts on it.
type Recommendation struct {
	Action        string    `json:"action"`
	Policy        string    `json:"policy"`
	Sessions      int64     `json:"sessions"`
	SuggestedDate time.Time `json:"suggested_date"`
}

// Report aggregates retention posture for the admin console.
type Report struct {
	GeneratedAt      time.Time                         `json:"generated_at"`
	TotalSessions    int64                             `json:"total_sessions"`
	CountsByStatus   map[enums.ChatSessionStatus]int64 `json:"counts_by_status"`
	ArchivedSessions int64                             `json:"archived_sessions"`
	EligibleForPurge int64                             `json:"eligible_for_purge"`
	Recommendations  []Recommendation                  `json:"recommendations,omitempty"`
}
