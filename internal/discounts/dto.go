package discounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// CreateInput carries a new discount code definition.
type CreateInput struct {
	Code          string
	Description   string
	DiscountType  enums.DiscountType
	Value         decimal.Decimal
	MinOrderTotal decimal.Decimal
	MaxDiscount   *decimal.Decimal
	UsageLimit    *int
	StartsAt      *time.Time
	ExpiresAt     *time.Time
	MemberOnly    bool
	Active        bool
	ActorUserID   uuid.UUID
}

// UpdateInput carries the mutable fields of a discount code edit. Nil
// pointers leave the stored value untouched.
type UpdateInput struct {
	ID            uuid.UUID
	Description   *string
	Value         *decimal.Decimal
	MinOrderTotal *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	UsageLimit    *int
	StartsAt      *time.Time
	ExpiresAt     *time.Time
	MemberOnly    *bool
	Active        *bool
	ActorUserID   uuid.UUID
}

// ValidationResult is the computed outcome of applying a code to a cart.
type ValidationResult struct {
	Code           string             `json:"code"`
	DiscountType   enums.DiscountType `json:"discount_type"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	FreeShipping   bool               `json:"free_shipping"`
}

// Filters narrows discount code listings.
type Filters struct {
	Active *bool
	Query  string
}

// List is one page of discount codes plus the cursor for the next page.
type List struct {
	Codes      []models.DiscountCode `json:"codes"`
	NextCursor *string               `json:"next_cursor,omitempty"`
}
