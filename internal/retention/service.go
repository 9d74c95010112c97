package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/ecomjrm/ecomjrm-backend/internal/chatarchive"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

const (
	deadlineWarningDays = 7

	archivePenaltyPerViolation = 2
	archivePenaltyCap          = 40
	purgePenaltyPerViolation   = 5
	purgePenaltyCap            = 50
)

type archiveManager interface {
	ArchiveInactive(ctx context.Context, inactiveDays, retentionDays int, scope enums.RetentionScope, limit int) (*chatarchive.BatchResult, error)
	PurgeExpired(ctx context.Context, scope enums.RetentionScope, limit int) (*chatarchive.PurgeResult, error)
	OverdueForArchive(ctx context.Context, inactiveDays int, scope enums.RetentionScope) (int64, error)
	OverdueForPurge(ctx context.Context, scope enums.RetentionScope) (int64, error)
	ApproachingArchive(ctx context.Context, inactiveDays, withinDays int, scope enums.RetentionScope) (int64, error)
	ApproachingPurge(ctx context.Context, withinDays int, scope enums.RetentionScope) (int64, error)
	Stats(ctx context.Context) (*chatarchive.StatsResult, error)
}

// Service drives the archive manager under named retention policies.
type Service interface {
	Policies() []Policy
	ExecutePolicy(ctx context.Context, name string) (*JobRecord, error)
	CheckCompliance(ctx context.Context) (*ComplianceResult, error)
	GenerateReport(ctx context.Context) (*Report, error)
}

type service struct {
	archive  archiveManager
	policies []Policy
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a retention engine over the archive manager.
func NewService(archive archiveManager, policies []Policy, logg *logger.Logger) (Service, error) {
	if archive == nil {
		return nil, fmt.Errorf("archive manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(policies) == 0 {
		policies = DefaultPolicies()
	}
	for _, policy := range policies {
		if policy.PurgeAfterDays <= policy.AutoArchiveAfterDays {
			return nil, fmt.Errorf("policy %s: purge threshold must exceed archive threshold", policy.Name)
		}
	}
	return &service{
		archive:  archive,
		policies: policies,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Policies() []Policy {
	out := make([]Policy, len(s.policies))
	copy(out, s.policies)
	return out
}

// ExecutePolicy runs auto-archive then purge under the named policy.
// Step failures land on the returned record; they are never retried.
func (s *service) ExecutePolicy(ctx context.Context, name string) (*JobRecord, error) {
	policy, ok := findPolicy(s.policies, name)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown retention policy %q", name))
	}
	if !policy.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("retention policy %q is disabled", policy.Name))
	}

	record := &JobRecord{
		Policy:    policy.Name,
		Status:    JobStatusCompleted,
		StartedAt: s.now(),
	}

	archived, err := s.archive.ArchiveInactive(ctx, policy.AutoArchiveAfterDays, policy.RetentionDays(), policy.Scope, 0)
	if err != nil {
		record.Errors = append(record.Errors, fmt.Sprintf("auto-archive: %v", err))
	} else {
		record.Archived = archived.Processed
		record.Errors = append(record.Errors, archived.Errors...)
	}

	purged, err := s.archive.PurgeExpired(ctx, policy.Scope, 0)
	if err != nil {
		record.Errors = append(record.Errors, fmt.Sprintf("purge: %v", err))
	} else {
		record.Purged = purged.SessionsDeleted
	}

	record.Processed = int64(record.Archived) + record.Purged
	record.CompletedAt = s.now()
	if len(record.Errors) > 0 {
		record.Status = JobStatusFailed
		s.logg.Warn(ctx, fmt.Sprintf("retention policy %s completed with %d errors", policy.Name, len(record.Errors)))
	}
	return record, nil
}

// CheckCompliance counts sessions overdue under each enabled policy and
// folds them into a 0-100 score. Each session is counted under exactly one
// policy: when enabled scoped policies cover both guest and authenticated
// sessions, any all-scope policy is left out of the sums, since its counts
// would repeat sessions the scoped policies already cover.
func (s *service) CheckCompliance(ctx context.Context) (*ComplianceResult, error) {
	result := &ComplianceResult{CheckedAt: s.now()}

	for _, policy := range compliancePolicies(s.policies) {
		overdueArchive, err := s.archive.OverdueForArchive(ctx, policy.AutoArchiveAfterDays, policy.Scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sessions overdue for archive")
		}
		overduePurge, err := s.archive.OverdueForPurge(ctx, policy.Scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sessions overdue for purge")
		}
		result.OverdueForArchive += overdueArchive
		result.OverdueForPurge += overduePurge

		approachingArchive, err := s.archive.ApproachingArchive(ctx, policy.AutoArchiveAfterDays, deadlineWarningDays, policy.Scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sessions approaching archive deadline")
		}
		if approachingArchive > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%d sessions reach the %s archive deadline within %d days", approachingArchive, policy.Name, deadlineWarningDays))
		}
		approachingPurge, err := s.archive.ApproachingPurge(ctx, deadlineWarningDays, policy.Scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sessions approaching purge deadline")
		}
		if approachingPurge > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%d sessions reach the %s purge deadline within %d days", approachingPurge, policy.Name, deadlineWarningDays))
		}
	}

	result.Score = complianceScore(result.OverdueForArchive, result.OverdueForPurge)
	return result, nil
}

// compliancePolicies returns the enabled policies to sum over, dropping
// all-scope policies once the guest and authenticated scopes are both
// covered by enabled policies of their own.
func compliancePolicies(policies []Policy) []Policy {
	var guest, authed bool
	for _, policy := range policies {
		if !policy.Enabled {
			continue
		}
		switch policy.Scope {
		case enums.RetentionScopeGuest:
			guest = true
		case enums.RetentionScopeAuthenticated:
			authed = true
		}
	}

	out := make([]Policy, 0, len(policies))
	for _, policy := range policies {
		if !policy.Enabled {
			continue
		}
		if policy.Scope == enums.RetentionScopeAll && guest && authed {
			continue
		}
		out = append(out, policy)
	}
	return out
}

func complianceScore(overdueArchive, overduePurge int64) int {
	archivePenalty := overdueArchive * archivePenaltyPerViolation
	if archivePenalty > archivePenaltyCap {
		archivePenalty = archivePenaltyCap
	}
	purgePenalty := overduePurge * purgePenaltyPerViolation
	if purgePenalty > purgePenaltyCap {
		purgePenalty = purgePenaltyCap
	}
	return 100 - int(archivePenalty) - int(purgePenalty)
}

// GenerateReport aggregates posture plus advisory next actions. Suggested
// dates are informational; nothing schedules them.
func (s *service) GenerateReport(ctx context.Context) (*Report, error) {
	stats, err := s.archive.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load archive stats")
	}

	now := s.now()
	report := &Report{
		GeneratedAt:      now,
		TotalSessions:    stats.Total,
		CountsByStatus:   stats.CountsByStatus,
		ArchivedSessions: stats.Archived,
		EligibleForPurge: stats.EligibleForPurge,
	}

	for _, policy := range s.policies {
		if !policy.Enabled {
			continue
		}
		overdueArchive, err := s.archive.OverdueForArchive(ctx, policy.AutoArchiveAfterDays, policy.Scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sessions overdue for archive")
		}
		if overdueArchive > 0 {
			report.Recommendations = append(report.Recommendations, Recommendation{
				Action:        "archive",
				Policy:        policy.Name,
				Sessions:      overdueArchive,
				SuggestedDate: now.AddDate(0, 0, 1),
			})
		}
		overduePurge, err := s.archive.OverdueForPurge(ctx, policy.Scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sessions overdue for purge")
		}
		if overduePurge > 0 {
			report.Recommendations = append(report.Recommendations, Recommendation{
				Action:        "purge",
				Policy:        policy.Name,
				Sessions:      overduePurge,
				SuggestedDate: now.AddDate(0, 0, deadlineWarningDays),
			})
		}
	}
	return report, nil
}
