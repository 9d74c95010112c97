package cron

import (
	"context"
	"fmt"

	"github.com/ecomjrm/ecomjrm-backend/internal/chatarchive"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

type sessionArchiver interface {
	AutoArchiveOldSessions(ctx context.Context) (*chatarchive.BatchResult, error)
}

type archivePurger interface {
	PurgeOldArchives(ctx context.Context) (*chatarchive.PurgeResult, error)
}

// ChatAutoArchiveJobParams configure the auto-archive job.
type ChatAutoArchiveJobParams struct {
	Logger  *logger.Logger
	Archive sessionArchiver
}

// NewChatAutoArchiveJob archives chat sessions with no recent activity.
func NewChatAutoArchiveJob(params ChatAutoArchiveJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Archive == nil {
		return nil, fmt.Errorf("chat archive service required")
	}
	return &chatAutoArchiveJob{logg: params.Logger, archive: params.Archive}, nil
}

type chatAutoArchiveJob struct {
	logg    *logger.Logger
	archive sessionArchiver
}

func (j *chatAutoArchiveJob) Name() string { return "chat-auto-archive" }

func (j *chatAutoArchiveJob) Run(ctx context.Context) error {
	result, err := j.archive.AutoArchiveOldSessions(ctx)
	if err != nil {
		return fmt.Errorf("auto-archive: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"requested": result.Requested,
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"errors":    len(result.Errors),
	})
	j.logg.Info(logCtx, "chat auto-archive complete")
	return nil
}

// ChatPurgeJobParams configure the purge job.
type ChatPurgeJobParams struct {
	Logger  *logger.Logger
	Archive archivePurger
}

// NewChatPurgeJob deletes archived sessions whose retention has lapsed.
func NewChatPurgeJob(params ChatPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Archive == nil {
		return nil, fmt.Errorf("chat archive service required")
	}
	return &chatPurgeJob{logg: params.Logger, archive: params.Archive}, nil
}

type chatPurgeJob struct {
	logg    *logger.Logger
	archive archivePurger
}

func (j *chatPurgeJob) Name() string { return "chat-purge" }

func (j *chatPurgeJob) Run(ctx context.Context) error {
	result, err := j.archive.PurgeOldArchives(ctx)
	if err != nil {
		return fmt.Errorf("purge archives: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"sessions_deleted": result.SessionsDeleted,
		"messages_deleted": result.MessagesDeleted,
	})
	j.logg.Info(logCtx, "chat purge complete")
	return nil
}
