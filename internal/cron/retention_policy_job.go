package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/ecomjrm/ecomjrm-backend/internal/retention"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

type policyRunner interface {
	Policies() []retention.Policy
	ExecutePolicy(ctx context.Context, name string) (*retention.JobRecord, error)
}

// RetentionPolicyJobParams configure the retention policy job.
type RetentionPolicyJobParams struct {
	Logger    *logger.Logger
	Retention policyRunner
}

// NewRetentionPolicyJob runs every enabled retention policy in turn.
func NewRetentionPolicyJob(params RetentionPolicyJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Retention == nil {
		return nil, fmt.Errorf("retention service required")
	}
	return &retentionPolicyJob{logg: params.Logger, retention: params.Retention}, nil
}

type retentionPolicyJob struct {
	logg      *logger.Logger
	retention policyRunner
}

func (j *retentionPolicyJob) Name() string { return "retention-policy" }

func (j *retentionPolicyJob) Run(ctx context.Context) error {
	var errs error
	for _, policy := range j.retention.Policies() {
		if !policy.Enabled {
			continue
		}
		record, err := j.retention.ExecutePolicy(ctx, policy.Name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("policy %s: %w", policy.Name, err))
			continue
		}
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"policy":    record.Policy,
			"status":    record.Status,
			"archived":  record.Archived,
			"purged":    record.Purged,
			"processed": record.Processed,
		})
		j.logg.Info(logCtx, "retention policy executed")
	}
	return errs
}
