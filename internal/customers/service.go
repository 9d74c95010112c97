package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service exposes the admin view of storefront customers: contact details
// and membership status. Accounts with staff or admin roles resolve as
// not found so this surface cannot touch operator credentials.
type Service interface {
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Get(ctx context.Context, id uuid.UUID) (*Customer, error)
	Update(ctx context.Context, input UpdateInput) (*Customer, error)
}

type service struct {
	repo  Repository
	audit auditRecorder
	now   func() time.Time
}

// NewService builds a customers service.
func NewService(repo Repository, auditor auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, audit: auditor, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	rows, nextCursor, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}

	list := &List{Customers: make([]Customer, 0, len(rows)), NextCursor: nextCursor}
	for i := range rows {
		list.Customers = append(list.Customers, *fromModel(&rows[i]))
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	user, err := s.loadCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(user), nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*Customer, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	user, err := s.loadCustomer(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		if phone := strings.TrimSpace(*input.Phone); phone != "" {
			updates["phone"] = phone
		} else {
			updates["phone"] = nil
		}
	}
	if input.IsMember != nil && *input.IsMember != user.IsMember {
		updates["is_member"] = *input.IsMember
		if *input.IsMember {
			updates["member_since"] = s.now()
		} else {
			updates["member_since"] = nil
		}
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}

	if err := s.repo.Update(ctx, input.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}

	changed := make([]string, 0, len(updates))
	for field := range updates {
		changed = append(changed, field)
	}
	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "customer.update",
		Resource:    "customer",
		ResourceID:  input.ID.String(),
		Details:     map[string]any{"email": user.Email, "fields": changed},
	})

	updated, err := s.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload customer")
	}
	return fromModel(updated), nil
}

func (s *service) loadCustomer(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if user.Role != enums.UserRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return user, nil
}
