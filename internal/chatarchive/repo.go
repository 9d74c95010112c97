package chatarchive

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a chat archive repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.ChatSession, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var sessions []models.ChatSession
	err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) Save(ctx context.Context, session *models.ChatSession) error {
	return r.db.WithContext(ctx).Omit("Messages").Save(session).Error
}

func scoped(query *gorm.DB, scope enums.RetentionScope) *gorm.DB {
	switch scope {
	case enums.RetentionScopeGuest:
		return query.Where("user_id IS NULL")
	case enums.RetentionScopeAuthenticated:
		return query.Where("user_id IS NOT NULL")
	default:
		return query
	}
}

func (r *repository) FindInactive(ctx context.Context, before time.Time, scope enums.RetentionScope, limit int) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	query := r.db.WithContext(ctx).
		Where("last_activity < ?", before).
		Where("status NOT IN ?", []enums.ChatSessionStatus{
			enums.ChatSessionStatusActive,
			enums.ChatSessionStatusArchived,
		})
	query = scoped(query, scope)
	err := query.Order("last_activity ASC").Limit(limit).Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) FindPurgeable(ctx context.Context, now time.Time, scope enums.RetentionScope, limit int) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.ChatSessionStatusArchived).
		Where("retention_until IS NOT NULL AND retention_until <= ?", now)
	query = scoped(query, scope)
	err := query.Order("retention_until ASC").Limit(limit).Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) DeleteMessages(ctx context.Context, sessionIDs []uuid.UUID) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Delete(&models.ChatMessage{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) DeleteSessions(ctx context.Context, sessionIDs []uuid.UUID) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("id IN ?", sessionIDs).
		Delete(&models.ChatSession{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.ChatSessionStatus]int64, error) {
	type statusCount struct {
		Status enums.ChatSessionStatus
		Total  int64
	}
	var counts []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.ChatSessionStatus]int64, len(counts))
	for _, row := range counts {
		out[row.Status] = row.Total
	}
	return out, nil
}

func (r *repository) CountInactive(ctx context.Context, from, to time.Time, scope enums.RetentionScope) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("last_activity < ?", to).
		Where("status NOT IN ?", []enums.ChatSessionStatus{
			enums.ChatSessionStatusActive,
			enums.ChatSessionStatusArchived,
		})
	if !from.IsZero() {
		query = query.Where("last_activity >= ?", from)
	}
	query = scoped(query, scope)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountPurgeable(ctx context.Context, now time.Time, scope enums.RetentionScope) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("status = ?", enums.ChatSessionStatusArchived).
		Where("retention_until IS NOT NULL AND retention_until <= ?", now)
	query = scoped(query, scope)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CountRetentionExpiring(ctx context.Context, from, to time.Time, scope enums.RetentionScope) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("status = ?", enums.ChatSessionStatusArchived).
		Where("retention_until > ? AND retention_until <= ?", from, to)
	query = scoped(query, scope)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.ChatSession{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(session_id) LIKE ? OR LOWER(COALESCE(guest_email, '')) LIKE ?", pattern, pattern)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ChatSession
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{Sessions: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Sessions = rows[:normalized]
		encoded := pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
		list.NextCursor = &encoded
	}
	return list, nil
}
