package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// CreateInput carries the fields for a new catalog entry.
type CreateInput struct {
	SKU          string
	Slug         string
	Name         string
	Description  string
	RegularPrice decimal.Decimal
	MemberPrice  decimal.Decimal
	Stock        int
	WeightKG     decimal.Decimal
	ImageURL     string
	Status       enums.ProductStatus
	ActorUserID  uuid.UUID
}

// UpdateInput holds a partial update; nil fields are left untouched.
type UpdateInput struct {
	ID           uuid.UUID
	Name         *string
	Description  *string
	RegularPrice *decimal.Decimal
	MemberPrice  *decimal.Decimal
	Stock        *int
	WeightKG     *decimal.Decimal
	ImageURL     *string
	Status       *enums.ProductStatus
	ActorUserID  uuid.UUID
}

// Filters narrows product listings.
type Filters struct {
	Status *enums.ProductStatus
	Query  string
}

// List is a page of products with an optional continuation cursor.
type List struct {
	Products   []models.Product `json:"products"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}
