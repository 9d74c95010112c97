package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
)

// Order is a customer order. Monetary amounts are MYR decimals.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID        *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	GuestEmail    *string             `gorm:"column:guest_email"`
	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax            decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	ShippingCost   decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	Discount       decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	ShippingWeight decimal.Decimal `gorm:"column:shipping_weight;type:numeric(8,3);not null;default:0"`

	ShippingAddressID *uuid.UUID `gorm:"column:shipping_address_id;type:uuid"`
	BillingAddressID  *uuid.UUID `gorm:"column:billing_address_id;type:uuid"`

	// Courier fields populated by fulfillment.
	CourierName         *string    `gorm:"column:courier_name"`
	CourierServiceID    *string    `gorm:"column:courier_service_id"`
	TrackingNumber      *string    `gorm:"column:tracking_number"`
	AirwayBillNumber    *string    `gorm:"column:airway_bill_number"`
	AirwayBillURL       *string    `gorm:"column:airway_bill_url"`
	ScheduledPickupDate *time.Time `gorm:"column:scheduled_pickup_date"`
	EasyParcelOrderID   *string    `gorm:"column:easyparcel_order_id"`

	// Admin override + booking failure audit trail.
	OverriddenByAdmin     bool    `gorm:"column:overridden_by_admin;not null;default:false"`
	AdminOverrideReason   *string `gorm:"column:admin_override_reason"`
	FailedBookingAttempts int     `gorm:"column:failed_booking_attempts;not null;default:0"`
	LastBookingError      *string `gorm:"column:last_booking_error"`

	DiscountCodeID *uuid.UUID `gorm:"column:discount_code_id;type:uuid"`

	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress *Address    `gorm:"foreignKey:ShippingAddressID"`
	BillingAddress  *Address    `gorm:"foreignKey:BillingAddressID"`
	User            *User       `gorm:"foreignKey:UserID"`

	PaidAt      *time.Time `gorm:"column:paid_at"`
	FulfilledAt *time.Time `gorm:"column:fulfilled_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsFulfilled reports whether a shipment has already been booked and paid.
func (o *Order) IsFulfilled() bool {
	if o == nil {
		return false
	}
	return o.TrackingNumber != nil && *o.TrackingNumber != "" &&
		o.AirwayBillNumber != nil && *o.AirwayBillNumber != ""
}
