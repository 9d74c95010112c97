package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// FulfillInput carries one admin fulfillment request.
type FulfillInput struct {
	OrderID             uuid.UUID
	ServiceID           string
	PickupDate          string
	OverriddenByAdmin   bool
	AdminOverrideReason string
	ActorUserID         uuid.UUID
}

// FulfillResult is returned to the admin console after a successful booking.
type FulfillResult struct {
	OrderID              uuid.UUID `json:"order_id"`
	TrackingNumber       string    `json:"tracking_number"`
	AirwayBillNumber     string    `json:"airway_bill_number"`
	AirwayBillURL        string    `json:"airway_bill_url"`
	CourierName          string    `json:"courier_name"`
	ScheduledPickupDate  string    `json:"scheduled_pickup_date"`
	EasyParcelShipmentID string    `json:"easyparcel_shipment_id"`
}

// Filters narrows admin order listings.
type Filters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Query         string
	From          *time.Time
	To            *time.Time
}

// List is one page of orders plus the cursor for the next page.
type List struct {
	Orders     []models.Order `json:"orders"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

// UpdateInput carries the mutable fields of an admin order edit.
type UpdateInput struct {
	OrderID     uuid.UUID
	Status      *enums.OrderStatus
	Reason      string
	ActorUserID uuid.UUID
}

// Stats aggregates order counts and revenue for the admin dashboard.
type Stats struct {
	TotalOrders    int64                       `json:"total_orders"`
	CountsByStatus map[enums.OrderStatus]int64 `json:"counts_by_status"`
	Revenue        decimal.Decimal             `json:"revenue"`
	PendingBooking int64                       `json:"pending_booking"`
}
