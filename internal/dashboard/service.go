package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/ecomjrm/ecomjrm-backend/internal/chatarchive"
	"github.com/ecomjrm/ecomjrm-backend/internal/orders"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
)

type orderStatser interface {
	Stats(ctx context.Context) (*orders.Stats, error)
}

type chatStatser interface {
	Stats(ctx context.Context) (*chatarchive.StatsResult, error)
}

// Overview is the aggregate snapshot rendered on the admin landing page.
type Overview struct {
	Orders      *orders.Stats            `json:"orders"`
	Chats       *chatarchive.StatsResult `json:"chats"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Service assembles the admin dashboard.
type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}

type service struct {
	orders orderStatser
	chats  chatStatser
	now    func() time.Time
}

// NewService wires the dashboard over the order and chat services.
func NewService(orderStats orderStatser, chatStats chatStatser) (Service, error) {
	if orderStats == nil {
		return nil, fmt.Errorf("order stats source required")
	}
	if chatStats == nil {
		return nil, fmt.Errorf("chat stats source required")
	}
	return &service{orders: orderStats, chats: chatStats, now: time.Now}, nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	orderStats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order stats")
	}
	chatStats, err := s.chats.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat stats")
	}
	return &Overview{
		Orders:      orderStats,
		Chats:       chatStats,
		GeneratedAt: s.now().UTC(),
	}, nil
}
