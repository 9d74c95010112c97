package discounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{2,31}$`)

var oneHundred = decimal.NewFromInt(100)

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service manages discount codes and computes discounts at checkout.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.DiscountCode, error)
	Get(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Update(ctx context.Context, input UpdateInput) (*models.DiscountCode, error)
	Delete(ctx context.Context, id, actorUserID uuid.UUID) error
	Validate(ctx context.Context, code string, orderTotal decimal.Decimal, isMember bool) (*ValidationResult, error)
}

type service struct {
	repo  Repository
	audit auditRecorder
	now   func() time.Time
}

// NewService builds a discounts service with the required dependencies.
func NewService(repo Repository, auditor auditRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, audit: auditor, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.DiscountCode, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if !codePattern.MatchString(code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code must be 3-32 characters of letters, digits, dash or underscore")
	}
	if err := validateDefinition(input.DiscountType, input.Value, input.StartsAt, input.ExpiresAt); err != nil {
		return nil, err
	}
	if input.MinOrderTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order total cannot be negative")
	}
	if input.UsageLimit != nil && *input.UsageLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
	}

	row := &models.DiscountCode{
		Code:          code,
		DiscountType:  input.DiscountType,
		Value:         input.Value,
		MinOrderTotal: input.MinOrderTotal,
		MaxDiscount:   input.MaxDiscount,
		UsageLimit:    input.UsageLimit,
		StartsAt:      input.StartsAt,
		ExpiresAt:     input.ExpiresAt,
		MemberOnly:    input.MemberOnly,
		Active:        input.Active,
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		row.Description = &desc
	}

	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("discount code %s already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount code")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "discount.create",
		Resource:    "discount_code",
		ResourceID:  row.ID.String(),
		Details:     map[string]any{"code": code, "type": input.DiscountType},
	})
	return row, nil
}

func validateDefinition(discountType enums.DiscountType, value decimal.Decimal, startsAt, expiresAt *time.Time) error {
	if !discountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", discountType))
	}
	switch discountType {
	case enums.DiscountTypePercentage:
		if !value.IsPositive() || value.GreaterThan(oneHundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "percentage value must be between 0 and 100")
		}
	case enums.DiscountTypeFixed:
		if !value.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "fixed discount value must be positive")
		}
	case enums.DiscountTypeFreeShipping:
		if value.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "free shipping value cannot be negative")
		}
	}
	if startsAt != nil && expiresAt != nil && !expiresAt.After(*startsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry must be after the start date")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code id required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discount codes")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.DiscountCode, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code id required")
	}

	existing, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	value := existing.Value
	if input.Value != nil {
		value = *input.Value
	}
	startsAt := existing.StartsAt
	if input.StartsAt != nil {
		startsAt = input.StartsAt
	}
	expiresAt := existing.ExpiresAt
	if input.ExpiresAt != nil {
		expiresAt = input.ExpiresAt
	}
	if err := validateDefinition(existing.DiscountType, value, startsAt, expiresAt); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Value != nil {
		updates["value"] = *input.Value
	}
	if input.MinOrderTotal != nil {
		if input.MinOrderTotal.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order total cannot be negative")
		}
		updates["min_order_total"] = *input.MinOrderTotal
	}
	if input.MaxDiscount != nil {
		updates["max_discount"] = *input.MaxDiscount
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
		}
		updates["usage_limit"] = *input.UsageLimit
	}
	if input.StartsAt != nil {
		updates["starts_at"] = *input.StartsAt
	}
	if input.ExpiresAt != nil {
		updates["expires_at"] = *input.ExpiresAt
	}
	if input.MemberOnly != nil {
		updates["member_only"] = *input.MemberOnly
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}

	if err := s.repo.Update(ctx, input.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discount code")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "discount.update",
		Resource:    "discount_code",
		ResourceID:  input.ID.String(),
		Details:     map[string]any{"code": existing.Code},
	})
	return s.Get(ctx, input.ID)
}

func (s *service) Delete(ctx context.Context, id, actorUserID uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete discount code")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: actorUserID,
		Action:      "discount.delete",
		Resource:    "discount_code",
		ResourceID:  id.String(),
	})
	return nil
}

// Validate applies a code to an order total and returns the computed
// discount. It does not consume usage; IncrementUsage happens at order
// placement.
func (s *service) Validate(ctx context.Context, code string, orderTotal decimal.Decimal, isMember bool) (*ValidationResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code required")
	}
	if orderTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative")
	}

	row, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}

	if !row.IsCurrent(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "discount code is not currently valid")
	}
	if row.MemberOnly && !isMember {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "discount code is for members only")
	}
	if orderTotal.LessThan(row.MinOrderTotal) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order total below the %s minimum for this code", row.MinOrderTotal))
	}

	result := &ValidationResult{
		Code:           row.Code,
		DiscountType:   row.DiscountType,
		DiscountAmount: decimal.Zero,
	}
	switch row.DiscountType {
	case enums.DiscountTypePercentage:
		result.DiscountAmount = orderTotal.Mul(row.Value).Div(oneHundred).Round(2)
	case enums.DiscountTypeFixed:
		result.DiscountAmount = row.Value
	case enums.DiscountTypeFreeShipping:
		result.FreeShipping = true
	}
	if row.MaxDiscount != nil && result.DiscountAmount.GreaterThan(*row.MaxDiscount) {
		result.DiscountAmount = *row.MaxDiscount
	}
	if result.DiscountAmount.GreaterThan(orderTotal) {
		result.DiscountAmount = orderTotal
	}
	return result, nil
}
