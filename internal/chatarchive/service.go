package chatarchive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service bulk-transitions chat sessions between live and archived states
// and permanently purges sessions past retention.
type Service interface {
	ArchiveSessions(ctx context.Context, input ArchiveInput) (*BatchResult, error)
	RestoreSessions(ctx context.Context, input RestoreInput) (*BatchResult, error)
	PurgeOldArchives(ctx context.Context) (*PurgeResult, error)
	AutoArchiveOldSessions(ctx context.Context) (*BatchResult, error)
	ArchiveInactive(ctx context.Context, inactiveDays, retentionDays int, scope enums.RetentionScope, limit int) (*BatchResult, error)
	PurgeExpired(ctx context.Context, scope enums.RetentionScope, limit int) (*PurgeResult, error)
	OverdueForArchive(ctx context.Context, inactiveDays int, scope enums.RetentionScope) (int64, error)
	OverdueForPurge(ctx context.Context, scope enums.RetentionScope) (int64, error)
	ApproachingArchive(ctx context.Context, inactiveDays, withinDays int, scope enums.RetentionScope) (int64, error)
	ApproachingPurge(ctx context.Context, withinDays int, scope enums.RetentionScope) (int64, error)
	ValidateArchiveRequest(input ArchiveInput) []string
	ValidateRestoreRequest(input RestoreInput) []string
	Stats(ctx context.Context) (*StatsResult, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
}

type service struct {
	repo Repository
	tx   txRunner
	cfg  Config
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds an archive manager with the required dependencies.
func NewService(repo Repository, tx txRunner, cfg Config, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chat archive repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.BatchSize <= 0 || cfg.MaxBatchIDs <= 0 || cfg.DefaultRetentionDays <= 0 {
		return nil, fmt.Errorf("invalid chat archive config")
	}
	return &service{
		repo: repo,
		tx:   tx,
		cfg:  cfg,
		logg: logg,
		now:  time.Now,
	}, nil
}

func (s *service) ValidateArchiveRequest(input ArchiveInput) []string {
	var problems []string
	if len(input.SessionIDs) == 0 {
		problems = append(problems, "at least one session id is required")
	}
	if len(input.SessionIDs) > s.cfg.MaxBatchIDs {
		problems = append(problems, fmt.Sprintf("at most %d session ids per request", s.cfg.MaxBatchIDs))
	}
	for _, id := range input.SessionIDs {
		if strings.TrimSpace(id) == "" {
			problems = append(problems, "session ids must not be blank")
			break
		}
	}
	if input.ScheduledPurgeDate != nil && !input.ScheduledPurgeDate.After(s.now()) {
		problems = append(problems, "scheduled purge date must be in the future")
	}
	return problems
}

func (s *service) ValidateRestoreRequest(input RestoreInput) []string {
	var problems []string
	if len(input.SessionIDs) == 0 {
		problems = append(problems, "at least one session id is required")
	}
	if len(input.SessionIDs) > s.cfg.MaxBatchIDs {
		problems = append(problems, fmt.Sprintf("at most %d session ids per request", s.cfg.MaxBatchIDs))
	}
	if input.RestoreTo != "" {
		if !input.RestoreTo.IsValid() {
			problems = append(problems, fmt.Sprintf("invalid restore status %q", input.RestoreTo))
		} else if input.RestoreTo == enums.ChatSessionStatusArchived {
			problems = append(problems, "cannot restore a session to archived")
		}
	}
	return problems
}

// ArchiveSessions archives the requested sessions in batches. Each batch is
// one transaction; a failed batch is recorded and the rest continue.
func (s *service) ArchiveSessions(ctx context.Context, input ArchiveInput) (*BatchResult, error) {
	if problems := s.ValidateArchiveRequest(input); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid archive request").
			WithDetails(map[string]any{"problems": problems})
	}

	sessions, err := s.repo.FindBySessionIDs(ctx, input.SessionIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat sessions")
	}

	now := s.now()
	retentionUntil := now.AddDate(0, 0, s.cfg.DefaultRetentionDays)
	if input.ScheduledPurgeDate != nil {
		retentionUntil = *input.ScheduledPurgeDate
	}

	result := &BatchResult{Requested: len(input.SessionIDs)}
	eligible := make([]models.ChatSession, 0, len(sessions))
	for _, session := range sessions {
		if session.Status == enums.ChatSessionStatusArchived {
			result.Skipped++
			continue
		}
		eligible = append(eligible, session)
	}
	result.Skipped += len(input.SessionIDs) - len(sessions)

	var batchErrs error
	for start := 0; start < len(eligible); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(eligible) {
			end = len(eligible)
		}
		batch := eligible[start:end]

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			for i := range batch {
				session := batch[i]
				s.applyArchive(&session, input.Reason, now, retentionUntil)
				if err := repo.Save(ctx, &session); err != nil {
					return fmt.Errorf("session %s: %w", session.SessionID, err)
				}
			}
			return nil
		})
		if err != nil {
			batchErrs = multierr.Append(batchErrs, err)
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", start/s.cfg.BatchSize+1, err))
			continue
		}
		result.Processed += len(batch)
	}
	if batchErrs != nil {
		s.logg.Error(ctx, "archive batches failed", batchErrs)
	}
	return result, nil
}

func (s *service) applyArchive(session *models.ChatSession, reason string, now, retentionUntil time.Time) {
	meta := session.Metadata.Clone()
	if meta == nil {
		meta = map[string]any{}
	}
	meta[models.ChatMetaOriginalStatus] = string(session.Status)
	if strings.TrimSpace(reason) != "" {
		meta[models.ChatMetaArchiveReason] = reason
	}
	session.Metadata = meta
	session.Status = enums.ChatSessionStatusArchived
	session.ArchivedAt = &now
	session.RetentionUntil = &retentionUntil
}

// RestoreSessions brings archived sessions back to a live status. Only
// sessions still inside their retention window are eligible.
func (s *service) RestoreSessions(ctx context.Context, input RestoreInput) (*BatchResult, error) {
	if problems := s.ValidateRestoreRequest(input); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid restore request").
			WithDetails(map[string]any{"problems": problems})
	}

	sessions, err := s.repo.FindBySessionIDs(ctx, input.SessionIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat sessions")
	}

	now := s.now()
	result := &BatchResult{Requested: len(input.SessionIDs)}
	eligible := make([]models.ChatSession, 0, len(sessions))
	for _, session := range sessions {
		if session.Status != enums.ChatSessionStatusArchived || !session.WithinRetention(now) {
			result.Skipped++
			continue
		}
		eligible = append(eligible, session)
	}
	result.Skipped += len(input.SessionIDs) - len(sessions)

	if len(eligible) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no sessions eligible for restore")
	}

	var batchErrs error
	for start := 0; start < len(eligible); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(eligible) {
			end = len(eligible)
		}
		batch := eligible[start:end]

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			for i := range batch {
				session := batch[i]
				s.applyRestore(&session, input, now)
				if err := repo.Save(ctx, &session); err != nil {
					return fmt.Errorf("session %s: %w", session.SessionID, err)
				}
			}
			return nil
		})
		if err != nil {
			batchErrs = multierr.Append(batchErrs, err)
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", start/s.cfg.BatchSize+1, err))
			continue
		}
		result.Processed += len(batch)
	}
	if batchErrs != nil {
		s.logg.Error(ctx, "restore batches failed", batchErrs)
	}
	return result, nil
}

func (s *service) applyRestore(session *models.ChatSession, input RestoreInput, now time.Time) {
	meta := session.Metadata.Clone()
	if meta == nil {
		meta = map[string]any{}
	}
	original, _ := meta.GetString(models.ChatMetaOriginalStatus)

	target := input.RestoreTo
	if target == "" {
		if parsed, err := enums.ParseChatSessionStatus(original); err == nil && parsed != enums.ChatSessionStatusArchived {
			target = parsed
		} else {
			target = enums.ChatSessionStatusEnded
		}
	}

	restoration := map[string]any{
		"restored_at":     now.UTC().Format(time.RFC3339),
		"restored_by":     input.ActorUserID.String(),
		"reason":          input.Reason,
		"original_status": original,
	}
	history, _ := meta[models.ChatMetaRestorations].([]any)
	meta[models.ChatMetaRestorations] = append(history, restoration)

	session.Metadata = meta
	session.Status = target
	session.ArchivedAt = nil
	session.RetentionUntil = nil
}

// PurgeOldArchives permanently deletes archived sessions past retention,
// messages first so no orphan rows survive.
func (s *service) PurgeOldArchives(ctx context.Context) (*PurgeResult, error) {
	return s.PurgeExpired(ctx, enums.RetentionScopeAll, s.cfg.PurgeLimit)
}

func (s *service) PurgeExpired(ctx context.Context, scope enums.RetentionScope, limit int) (*PurgeResult, error) {
	if limit <= 0 {
		limit = s.cfg.PurgeLimit
	}
	sessions, err := s.repo.FindPurgeable(ctx, s.now(), scope, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find purgeable sessions")
	}

	result := &PurgeResult{}
	if len(sessions) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		messages, err := repo.DeleteMessages(ctx, ids)
		if err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		deleted, err := repo.DeleteSessions(ctx, ids)
		if err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		result.MessagesDeleted = messages
		result.SessionsDeleted = deleted
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge archived sessions")
	}
	return result, nil
}

// AutoArchiveOldSessions archives sessions whose last activity is older than
// the configured inactivity threshold.
func (s *service) AutoArchiveOldSessions(ctx context.Context) (*BatchResult, error) {
	return s.ArchiveInactive(ctx, s.cfg.AutoArchiveInactiveDays, s.cfg.DefaultRetentionDays, enums.RetentionScopeAll, s.cfg.AutoArchiveLimit)
}

func (s *service) ArchiveInactive(ctx context.Context, inactiveDays, retentionDays int, scope enums.RetentionScope, limit int) (*BatchResult, error) {
	if inactiveDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inactivity threshold must be positive")
	}
	if retentionDays <= 0 {
		retentionDays = s.cfg.DefaultRetentionDays
	}
	if limit <= 0 {
		limit = s.cfg.AutoArchiveLimit
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -inactiveDays)
	sessions, err := s.repo.FindInactive(ctx, cutoff, scope, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find inactive sessions")
	}

	retentionUntil := now.AddDate(0, 0, retentionDays)
	result := &BatchResult{Requested: len(sessions)}

	var batchErrs error
	for start := 0; start < len(sessions); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(sessions) {
			end = len(sessions)
		}
		batch := sessions[start:end]

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			for i := range batch {
				session := batch[i]
				s.applyArchive(&session, "auto-archived after inactivity", now, retentionUntil)
				if err := repo.Save(ctx, &session); err != nil {
					return fmt.Errorf("session %s: %w", session.SessionID, err)
				}
			}
			return nil
		})
		if err != nil {
			batchErrs = multierr.Append(batchErrs, err)
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", start/s.cfg.BatchSize+1, err))
			continue
		}
		result.Processed += len(batch)
	}
	if batchErrs != nil {
		s.logg.Error(ctx, "auto-archive batches failed", batchErrs)
	}
	return result, nil
}

func (s *service) OverdueForArchive(ctx context.Context, inactiveDays int, scope enums.RetentionScope) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -inactiveDays)
	return s.repo.CountInactive(ctx, time.Time{}, cutoff, scope)
}

func (s *service) OverdueForPurge(ctx context.Context, scope enums.RetentionScope) (int64, error) {
	return s.repo.CountPurgeable(ctx, s.now(), scope)
}

func (s *service) ApproachingArchive(ctx context.Context, inactiveDays, withinDays int, scope enums.RetentionScope) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -inactiveDays)
	return s.repo.CountInactive(ctx, cutoff, cutoff.AddDate(0, 0, withinDays), scope)
}

func (s *service) ApproachingPurge(ctx context.Context, withinDays int, scope enums.RetentionScope) (int64, error) {
	now := s.now()
	return s.repo.CountRetentionExpiring(ctx, now, now.AddDate(0, 0, withinDays), scope)
}

func (s *service) Stats(ctx context.Context) (*StatsResult, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sessions by status")
	}
	purgeable, err := s.repo.CountPurgeable(ctx, s.now(), enums.RetentionScopeAll)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count purgeable sessions")
	}

	stats := &StatsResult{
		CountsByStatus:   counts,
		Archived:         counts[enums.ChatSessionStatusArchived],
		EligibleForPurge: purgeable,
	}
	for _, total := range counts {
		stats.Total += total
	}
	return stats, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chat sessions")
	}
	return list, nil
}
