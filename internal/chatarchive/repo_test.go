package chatarchive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

func TestRepositoryFindBySessionIDs(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createSession(t, db, "find-1", enums.ChatSessionStatusActive, now, nil)
	createSession(t, db, "find-2", enums.ChatSessionStatusEnded, now, nil)

	sessions, err := repo.FindBySessionIDs(context.Background(), []string{"find-1", "find-2", "missing"})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	sessions, err = repo.FindBySessionIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRepositoryList_paginationAndFilter(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createSession(t, db, "list-1", enums.ChatSessionStatusActive, now.Add(-time.Hour), nil)
	createSession(t, db, "list-2", enums.ChatSessionStatusEnded, now, nil)

	list, err := repo.List(context.Background(), pagination.Params{Limit: 1}, Filters{})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	require.NotNil(t, list.NextCursor)
	assert.Equal(t, "list-2", list.Sessions[0].SessionID)

	second, err := repo.List(context.Background(), pagination.Params{Limit: 1, Cursor: *list.NextCursor}, Filters{})
	require.NoError(t, err)
	require.Len(t, second.Sessions, 1)
	assert.Equal(t, "list-1", second.Sessions[0].SessionID)
	assert.Nil(t, second.NextCursor)

	status := enums.ChatSessionStatusEnded
	filtered, err := repo.List(context.Background(), pagination.Params{Limit: 10}, Filters{Status: &status})
	require.NoError(t, err)
	require.Len(t, filtered.Sessions, 1)
	assert.Equal(t, "list-2", filtered.Sessions[0].SessionID)
}

func TestRepositoryFindInactive_excludesActiveAndArchived(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	stale := createSession(t, db, "inactive-1", enums.ChatSessionStatusEnded, now.AddDate(0, 0, -120), nil)
	createSession(t, db, "inactive-2", enums.ChatSessionStatusActive, now.AddDate(0, 0, -120), nil)
	archived := createSession(t, db, "inactive-3", enums.ChatSessionStatusEnded, now.AddDate(0, 0, -120), nil)
	archiveWithRetention(t, db, archived, now.AddDate(0, 0, -100), now.AddDate(0, 0, 200))

	sessions, err := repo.FindInactive(context.Background(), now.AddDate(0, 0, -90), enums.RetentionScopeAll, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, stale.SessionID, sessions[0].SessionID)
}
