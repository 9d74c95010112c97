package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/pkg/cache"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

// cacheTag groups every cached product read for bulk invalidation.
const cacheTag = "products"

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service manages the product catalog. Reads go through the cache-aside
// wrapper; every write invalidates the products tag.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Update(ctx context.Context, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id, actorUserID uuid.UUID) error
}

type service struct {
	repo  Repository
	cache *cache.Cache
	ttl   time.Duration
	audit auditRecorder
	logg  *logger.Logger
}

// NewService builds a products service. The cache is optional; when nil,
// every read hits the database.
func NewService(repo Repository, cacheWrapper *cache.Cache, ttl time.Duration, auditor auditRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cache: cacheWrapper, ttl: ttl, audit: auditor, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	name := strings.TrimSpace(input.Name)
	if sku == "" || slug == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku, slug and name are required")
	}
	status := input.Status
	if status == "" {
		status = enums.ProductStatusDraft
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product status %q", status))
	}
	if err := validatePricing(input.RegularPrice, input.MemberPrice); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.WeightKG.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
	}

	row := &models.Product{
		SKU:          sku,
		Slug:         slug,
		Name:         name,
		RegularPrice: input.RegularPrice,
		MemberPrice:  input.MemberPrice,
		Stock:        input.Stock,
		WeightKG:     input.WeightKG,
		Status:       status,
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		row.Description = &desc
	}
	if url := strings.TrimSpace(input.ImageURL); url != "" {
		row.ImageURL = &url
	}

	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("product with sku %s or slug %s already exists", sku, slug))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.invalidate(ctx)
	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "product.create",
		Resource:    "product",
		ResourceID:  row.ID.String(),
		Details:     map[string]any{"sku": sku, "slug": slug},
	})
	return row, nil
}

// validatePricing enforces the two-tier price: members always pay less
// than the regular price.
func validatePricing(regular, member decimal.Decimal) error {
	if !regular.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "regular price must be positive")
	}
	if !member.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "member price must be positive")
	}
	if member.GreaterThanOrEqual(regular) {
		return pkgerrors.New(pkgerrors.CodeValidation, "member price must be lower than the regular price")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	key := s.cacheKey("product", id.String())
	row, err := cache.GetOrLoad(ctx, s.cache, key, s.ttl, []string{cacheTag}, func(ctx context.Context) (models.Product, error) {
		loaded, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return models.Product{}, err
		}
		return *loaded, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &row, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	normalized := strings.ToLower(strings.TrimSpace(slug))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug required")
	}
	key := s.cacheKey("product", "slug", normalized)
	row, err := cache.GetOrLoad(ctx, s.cache, key, s.ttl, []string{cacheTag}, func(ctx context.Context) (models.Product, error) {
		loaded, err := s.repo.FindBySlug(ctx, normalized)
		if err != nil {
			return models.Product{}, err
		}
		return *loaded, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &row, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Product, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	existing, err := s.repo.FindByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	regular := existing.RegularPrice
	if input.RegularPrice != nil {
		regular = *input.RegularPrice
	}
	member := existing.MemberPrice
	if input.MemberPrice != nil {
		member = *input.MemberPrice
	}
	if err := validatePricing(regular, member); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.RegularPrice != nil {
		updates["regular_price"] = *input.RegularPrice
	}
	if input.MemberPrice != nil {
		updates["member_price"] = *input.MemberPrice
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.WeightKG != nil {
		if input.WeightKG.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
		}
		updates["weight_kg"] = *input.WeightKG
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product status %q", *input.Status))
		}
		updates["status"] = *input.Status
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}

	if err := s.repo.Update(ctx, input.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	s.invalidate(ctx)
	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "product.update",
		Resource:    "product",
		ResourceID:  input.ID.String(),
		Details:     map[string]any{"sku": existing.SKU},
	})

	updated, err := s.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id, actorUserID uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}

	s.invalidate(ctx)
	s.audit.Record(ctx, audit.Entry{
		ActorUserID: actorUserID,
		Action:      "product.delete",
		Resource:    "product",
		ResourceID:  id.String(),
	})
	return nil
}

func (s *service) cacheKey(parts ...string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.Key(parts...)
}

// invalidate drops every cached product read. A stale cache is worse than
// a cold one, so failures are logged and the write goes through.
func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cacheTag); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("product cache invalidation failed: %v", err))
	}
}
