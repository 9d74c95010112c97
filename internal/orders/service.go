package orders

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
	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/easyparcel"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	"github.com/ecomjrm/ecomjrm-backend/pkg/mailer"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

const pickupDateLayout = "2006-01-02"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type shipmentProvider interface {
	CreateShipment(ctx context.Context, req easyparcel.ShipmentRequest) (*easyparcel.Shipment, error)
	PayShipment(ctx context.Context, orderNumber string) (*easyparcel.PaymentResult, error)
	CheckBalance(ctx context.Context) (decimal.Decimal, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// FulfillmentNotifier pushes shipment notifications to configured channels.
type FulfillmentNotifier interface {
	NotifyOrderFulfilled(ctx context.Context, order *models.Order) error
}

// Service defines admin order operations.
type Service interface {
	Fulfill(ctx context.Context, input FulfillInput) (*FulfillResult, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Update(ctx context.Context, input UpdateInput) (*models.Order, error)
	Delete(ctx context.Context, orderID, actorUserID uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	courier  shipmentProvider
	mail     mailer.Sender
	notifier FulfillmentNotifier
	audit    auditRecorder
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds an orders service with the required dependencies.
// The mailer and notifier are optional; fulfillment skips them when absent.
func NewService(repo Repository, tx txRunner, courier shipmentProvider, mail mailer.Sender, notifier FulfillmentNotifier, auditor auditRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if courier == nil {
		return nil, fmt.Errorf("shipment provider required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		courier:  courier,
		mail:     mail,
		notifier: notifier,
		audit:    auditor,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Fulfill books a shipment with the courier aggregator for a paid order and
// transitions it to ready_to_ship. Booking and payment failures are persisted
// on the order; nothing here retries automatically.
func (s *service) Fulfill(ctx context.Context, input FulfillInput) (*FulfillResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.ServiceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier service id required")
	}
	pickupDate, err := time.Parse(pickupDateLayout, input.PickupDate)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup date must be YYYY-MM-DD")
	}
	today := s.now().Truncate(24 * time.Hour)
	if pickupDate.Before(today) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup date cannot be in the past")
	}
	if input.OverriddenByAdmin && strings.TrimSpace(input.AdminOverrideReason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "override reason required")
	}

	order, err := s.repo.FindDetail(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	// A booked shipment wins over the status guard: fulfilled orders have
	// necessarily left paid, and ALREADY_FULFILLED is the answer the admin
	// can act on.
	if order.IsFulfilled() {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyFulfilled, "order already has a booked shipment")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOrderStatus,
			fmt.Sprintf("order must be paid to fulfill, current status %s", order.Status)).
			WithDetails(map[string]any{"status": order.Status})
	}
	if !order.ShippingAddress.IsShippable() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAddress, "order shipping address is incomplete")
	}
	if !order.ShippingWeight.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidWeight, "order shipping weight must be positive")
	}

	profile, err := s.repo.FindBusinessProfile(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "business profile not configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business profile")
	}
	if !profile.HasPickupAddress() {
		return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "business profile has no pickup address")
	}

	req := buildShipmentRequest(order, profile, input.ServiceID, input.PickupDate)

	shipment, err := s.courier.CreateShipment(ctx, req)
	if err != nil {
		return nil, s.handleBookingFailure(ctx, order.ID, "create shipment", err)
	}

	payment, err := s.courier.PayShipment(ctx, shipment.OrderNumber)
	if err != nil {
		// The aggregator order exists but is unpaid. Surface its id so an
		// admin can reconcile or retry manually; the order stays paid.
		failure := s.handleBookingFailure(ctx, order.ID, "pay shipment", err)
		if typed := pkgerrors.As(failure); typed != nil {
			details, _ := typed.Details().(map[string]any)
			if details == nil {
				details = map[string]any{}
			}
			details["easyparcel_order_number"] = shipment.OrderNumber
			return nil, typed.WithDetails(details)
		}
		return nil, failure
	}

	now := s.now()
	updates := map[string]any{
		"status":                  enums.OrderStatusReadyToShip,
		"courier_name":            shipment.CourierName,
		"courier_service_id":      input.ServiceID,
		"tracking_number":         payment.TrackingNumber,
		"airway_bill_number":      payment.AWBNumber,
		"airway_bill_url":         payment.AWBLink,
		"scheduled_pickup_date":   pickupDate,
		"easyparcel_order_id":     shipment.OrderNumber,
		"overridden_by_admin":     input.OverriddenByAdmin,
		"fulfilled_at":            now,
		"failed_booking_attempts": 0,
		"last_booking_error":      nil,
	}
	if input.OverriddenByAdmin {
		updates["admin_override_reason"] = input.AdminOverrideReason
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).UpdateFulfillment(ctx, order.ID, updates)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist fulfillment")
	}

	order.Status = enums.OrderStatusReadyToShip
	order.CourierName = &shipment.CourierName
	order.TrackingNumber = &payment.TrackingNumber
	order.AirwayBillNumber = &payment.AWBNumber
	order.AirwayBillURL = &payment.AWBLink
	order.ScheduledPickupDate = &pickupDate

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "order.fulfill",
		Resource:    "order",
		ResourceID:  order.ID.String(),
		Details: map[string]any{
			"tracking_number":  payment.TrackingNumber,
			"courier":          shipment.CourierName,
			"service_id":       input.ServiceID,
			"easyparcel_order": shipment.OrderNumber,
			"admin_override":   input.OverriddenByAdmin,
		},
	})

	s.sendShippingEmail(ctx, order, payment)
	s.notifyChannels(ctx, order)

	return &FulfillResult{
		OrderID:              order.ID,
		TrackingNumber:       payment.TrackingNumber,
		AirwayBillNumber:     payment.AWBNumber,
		AirwayBillURL:        payment.AWBLink,
		CourierName:          shipment.CourierName,
		ScheduledPickupDate:  input.PickupDate,
		EasyParcelShipmentID: shipment.OrderNumber,
	}, nil
}

// handleBookingFailure records a failed courier interaction on the order and
// maps the courier error to the typed code the admin console expects.
func (s *service) handleBookingFailure(ctx context.Context, orderID uuid.UUID, stage string, cause error) error {
	message := fmt.Sprintf("%s: %s", stage, cause.Error())
	if err := s.repo.RecordBookingFailure(ctx, orderID, message); err != nil {
		s.logg.Error(ctx, "record booking failure", err)
	}

	if errors.Is(cause, easyparcel.ErrInsufficientBalance) {
		details := map[string]any{}
		if balance, balErr := s.courier.CheckBalance(ctx); balErr == nil {
			details["balance"] = balance
		} else {
			s.logg.Warn(ctx, "check courier balance after booking failure failed")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientBalance, cause, "courier account balance too low").
			WithDetails(details)
	}

	var apiErr *easyparcel.APIError
	if errors.As(cause, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, fmt.Sprintf("courier rejected %s", stage))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, fmt.Sprintf("courier %s failed", stage))
}

func buildShipmentRequest(order *models.Order, profile *models.BusinessProfile, serviceID, pickupDate string) easyparcel.ShipmentRequest {
	content := "Merchandise"
	if len(order.Items) > 0 {
		names := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			names = append(names, item.Name)
		}
		content = strings.Join(names, ", ")
		if len(content) > 100 {
			content = content[:100]
		}
	}

	receiver := easyparcel.Party{
		Name:     order.ShippingAddress.Name,
		Phone:    order.ShippingAddress.Phone,
		Email:    customerEmail(order),
		Address1: order.ShippingAddress.Line1,
		Postcode: order.ShippingAddress.Postcode,
		City:     order.ShippingAddress.City,
		State:    order.ShippingAddress.State,
		Country:  order.ShippingAddress.Country,
	}
	if order.ShippingAddress.Line2 != nil {
		receiver.Address2 = *order.ShippingAddress.Line2
	}

	sender := easyparcel.Party{
		Name:     profile.PickupName,
		Phone:    profile.PickupPhone,
		Address1: profile.PickupLine1,
		Postcode: profile.PickupPostcode,
		City:     profile.PickupCity,
		State:    profile.PickupState,
		Country:  profile.PickupCountry,
	}
	if profile.PickupLine2 != nil {
		sender.Address2 = *profile.PickupLine2
	}

	return easyparcel.ShipmentRequest{
		ReferenceID: order.OrderNumber,
		ServiceID:   serviceID,
		PickupDate:  pickupDate,
		WeightKg:    order.ShippingWeight,
		Content:     content,
		ParcelValue: order.Total,
		Sender:      sender,
		Receiver:    receiver,
	}
}

func customerEmail(order *models.Order) string {
	if order.User != nil && order.User.Email != "" {
		return order.User.Email
	}
	if order.GuestEmail != nil {
		return *order.GuestEmail
	}
	return ""
}

func (s *service) sendShippingEmail(ctx context.Context, order *models.Order, payment *easyparcel.PaymentResult) {
	if s.mail == nil {
		return
	}
	to := customerEmail(order)
	if to == "" {
		return
	}

	courier := ""
	if order.CourierName != nil {
		courier = *order.CourierName
	}
	email := mailer.Email{
		To:       to,
		ToName:   order.ShippingAddress.Name,
		Subject:  fmt.Sprintf("Your order %s has shipped", order.OrderNumber),
		HTMLBody: shippingEmailHTML(order.OrderNumber, courier, payment),
		TextBody: fmt.Sprintf("Order %s is on its way. Courier: %s. Tracking number: %s. Track it at %s",
			order.OrderNumber, courier, payment.TrackingNumber, payment.TrackingURL),
	}
	if err := s.mail.Send(ctx, email); err != nil {
		s.logg.Error(ctx, "send shipping confirmation email", err)
	}
}

func shippingEmailHTML(orderNumber, courier string, payment *easyparcel.PaymentResult) string {
	return fmt.Sprintf(
		`<p>Good news! Your order <strong>%s</strong> has been shipped via %s.</p>`+
			`<p>Tracking number: <strong>%s</strong></p>`+
			`<p><a href="%s">Track your parcel</a></p>`,
		orderNumber, courier, payment.TrackingNumber, payment.TrackingURL)
}

func (s *service) notifyChannels(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyOrderFulfilled(ctx, order); err != nil {
		s.logg.Error(ctx, "notify telegram channels", err)
	}
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// Update applies an admin status override. Transitions are not restricted to
// the forward lifecycle, but every override lands in the audit trail.
func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Status == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *input.Status))
	}

	order, err := s.repo.FindDetail(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	previous := order.Status
	updates := map[string]any{"status": *input.Status}
	now := s.now()
	switch *input.Status {
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(ctx, order.ID, updates)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	order.Status = *input.Status

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: input.ActorUserID,
		Action:      "order.status_override",
		Resource:    "order",
		ResourceID:  order.ID.String(),
		Details: map[string]any{
			"from":   previous,
			"to":     *input.Status,
			"reason": input.Reason,
		},
	})
	return order, nil
}

func (s *service) Delete(ctx context.Context, orderID, actorUserID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, orderID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorUserID: actorUserID,
		Action:      "order.delete",
		Resource:    "order",
		ResourceID:  orderID.String(),
	})
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order stats")
	}
	return stats, nil
}
