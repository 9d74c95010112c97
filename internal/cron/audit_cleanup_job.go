package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

const auditRetentionDays = 180

type auditCleanupRepo interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditCleanupJobParams configure the audit log cleanup job.
type AuditCleanupJobParams struct {
	Logger     *logger.Logger
	Repository auditCleanupRepo
	Retention  int
}

// NewAuditCleanupJob deletes audit log rows older than the retention window.
func NewAuditCleanupJob(params AuditCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = auditRetentionDays
	}
	return &auditCleanupJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type auditCleanupJob struct {
	logg      *logger.Logger
	repo      auditCleanupRepo
	retention int
	now       func() time.Time
}

func (j *auditCleanupJob) Name() string { return "audit-log-cleanup" }

func (j *auditCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("audit cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "audit log cleanup complete")
	return nil
}
