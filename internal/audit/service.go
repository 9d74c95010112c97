package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
	"github.com/ecomjrm/ecomjrm-backend/pkg/types"
)

// Service records admin actions and serves the audit trail.
type Service interface {
	// Record persists an audit entry. Failures are logged and swallowed so
	// auditing never fails the operation being audited.
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds an audit service with the required dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) {
	if strings.TrimSpace(entry.Action) == "" || strings.TrimSpace(entry.Resource) == "" {
		s.logg.Warn(ctx, "audit entry missing action or resource, dropped")
		return
	}

	row := &models.AuditLog{
		Action:   entry.Action,
		Resource: entry.Resource,
		Details:  types.JSONMap(entry.Details),
	}
	if entry.ActorUserID != uuid.Nil {
		actor := entry.ActorUserID
		row.UserID = &actor
	}
	if id := strings.TrimSpace(entry.ResourceID); id != "" {
		row.ResourceID = &id
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.logg.Error(ctx, "record audit entry", err)
	}
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	return list, nil
}
