package chatarchive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

// Repository exposes persistence helpers for chat sessions and messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.ChatSession, error)
	Save(ctx context.Context, session *models.ChatSession) error
	FindInactive(ctx context.Context, before time.Time, scope enums.RetentionScope, limit int) ([]models.ChatSession, error)
	FindPurgeable(ctx context.Context, now time.Time, scope enums.RetentionScope, limit int) ([]models.ChatSession, error)
	DeleteMessages(ctx context.Context, sessionIDs []uuid.UUID) (int64, error)
	DeleteSessions(ctx context.Context, sessionIDs []uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[enums.ChatSessionStatus]int64, error)
	CountInactive(ctx context.Context, from, to time.Time, scope enums.RetentionScope) (int64, error)
	CountPurgeable(ctx context.Context, now time.Time, scope enums.RetentionScope) (int64, error)
	CountRetentionExpiring(ctx context.Context, from, to time.Time, scope enums.RetentionScope) (int64, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
}
