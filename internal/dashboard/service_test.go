package dashboard

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomjrm/ecomjrm-backend/internal/chatarchive"
	"github.com/ecomjrm/ecomjrm-backend/internal/orders"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
)

type fakeOrderStats struct {
	stats *orders.Stats
	err   error
}

func (f *fakeOrderStats) Stats(ctx context.Context) (*orders.Stats, error) {
	return f.stats, f.err
}

type fakeChatStats struct {
	stats *chatarchive.StatsResult
	err   error
}

func (f *fakeChatStats) Stats(ctx context.Context) (*chatarchive.StatsResult, error) {
	return f.stats, f.err
}

func TestOverview(t *testing.T) {
	orderStats := &orders.Stats{
		TotalOrders: 12,
		CountsByStatus: map[enums.OrderStatus]int64{
			enums.OrderStatusPaid: 4,
		},
		Revenue:        decimal.RequireFromString("1840.50"),
		PendingBooking: 4,
	}
	chatStats := &chatarchive.StatsResult{Total: 30, Archived: 9, EligibleForPurge: 2}

	svc, err := NewService(&fakeOrderStats{stats: orderStats}, &fakeChatStats{stats: chatStats})
	require.NoError(t, err)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), overview.Orders.TotalOrders)
	assert.Equal(t, int64(9), overview.Chats.Archived)
	assert.False(t, overview.GeneratedAt.IsZero())
}

func TestOverview_propagatesFailures(t *testing.T) {
	svc, err := NewService(
		&fakeOrderStats{err: fmt.Errorf("db down")},
		&fakeChatStats{stats: &chatarchive.StatsResult{}},
	)
	require.NoError(t, err)

	_, err = svc.Overview(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}
