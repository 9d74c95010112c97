package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type fakeRepository struct {
	findDetailFn   func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	profileFn      func(ctx context.Context) (*models.BusinessProfile, error)
	fulfillUpdates map[string]any
	failures       []string
	updates        map[string]any
	deleted        []uuid.UUID
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if f.findDetailFn != nil {
		return f.findDetailFn(ctx, orderID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	return &List{}, nil
}

func (f *fakeRepository) UpdateFulfillment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	f.fulfillUpdates = updates
	return nil
}

func (f *fakeRepository) RecordBookingFailure(ctx context.Context, orderID uuid.UUID, message string) error {
	f.failures = append(f.failures, message)
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	f.updates = updates
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, orderID uuid.UUID) error {
	f.deleted = append(f.deleted, orderID)
	return nil
}

func (f *fakeRepository) FindBusinessProfile(ctx context.Context) (*models.BusinessProfile, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx)
	}
	return validProfile(), nil
}

func (f *fakeRepository) Stats(ctx context.Context) (*Stats, error) {
	return &Stats{}, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeCourier struct {
	createFn    func(ctx context.Context, req easyparcel.ShipmentRequest) (*easyparcel.Shipment, error)
	payFn       func(ctx context.Context, orderNumber string) (*easyparcel.PaymentResult, error)
	balance     decimal.Decimal
	createCalls int
	payCalls    int
}

func (f *fakeCourier) CreateShipment(ctx context.Context, req easyparcel.ShipmentRequest) (*easyparcel.Shipment, error) {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return &easyparcel.Shipment{OrderNumber: "EP-1000", CourierName: "Pos Laju", Price: decimal.NewFromInt(8)}, nil
}

func (f *fakeCourier) PayShipment(ctx context.Context, orderNumber string) (*easyparcel.PaymentResult, error) {
	f.payCalls++
	if f.payFn != nil {
		return f.payFn(ctx, orderNumber)
	}
	return &easyparcel.PaymentResult{
		OrderNumber:    orderNumber,
		AWBNumber:      "AWB-77",
		AWBLink:        "https://example.com/awb/77",
		TrackingURL:    "https://example.com/track/77",
		TrackingNumber: "TRACK-77",
	}, nil
}

func (f *fakeCourier) CheckBalance(ctx context.Context) (decimal.Decimal, error) {
	return f.balance, nil
}

type fakeMailer struct {
	sent []mailer.Email
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, email mailer.Email) error {
	f.sent = append(f.sent, email)
	return f.err
}

type fakeNotifier struct {
	notified []uuid.UUID
	err      error
}

func (f *fakeNotifier) NotifyOrderFulfilled(ctx context.Context, order *models.Order) error {
	f.notified = append(f.notified, order.ID)
	return f.err
}

type fakeAuditor struct {
	entries []audit.Entry
}

func (f *fakeAuditor) Record(ctx context.Context, entry audit.Entry) {
	f.entries = append(f.entries, entry)
}

func validProfile() *models.BusinessProfile {
	return &models.BusinessProfile{
		ID:             uuid.New(),
		BusinessName:   "JRM Holistic Sdn Bhd",
		PickupName:     "JRM Warehouse",
		PickupPhone:    "+60312345678",
		PickupLine1:    "8 Jalan Industri",
		PickupCity:     "Shah Alam",
		PickupState:    "Selangor",
		PickupPostcode: "40000",
		PickupCountry:  "MY",
	}
}

func paidOrder() *models.Order {
	guest := "customer@example.com"
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "JRM-1001",
		GuestEmail:     &guest,
		Status:         enums.OrderStatusPaid,
		PaymentStatus:  enums.PaymentStatusPaid,
		Subtotal:       decimal.NewFromInt(100),
		Total:          decimal.NewFromInt(110),
		ShippingWeight: decimal.NewFromFloat(1.5),
		ShippingAddress: &models.Address{
			Name:     "Aisyah Binti Rahman",
			Phone:    "+60123456789",
			Line1:    "12 Jalan Ampang",
			City:     "Kuala Lumpur",
			State:    "Wilayah Persekutuan",
			Postcode: "50450",
			Country:  "MY",
		},
		Items: []models.OrderItem{{Name: "Herbal Supplement", Qty: 2}},
	}
}

type ordersTestEnv struct {
	repo     *fakeRepository
	courier  *fakeCourier
	mail     *fakeMailer
	notifier *fakeNotifier
	auditor  *fakeAuditor
	svc      Service
}

func newOrdersTestEnv(t *testing.T, repo *fakeRepository, courier *fakeCourier) *ordersTestEnv {
	t.Helper()

	env := &ordersTestEnv{
		repo:     repo,
		courier:  courier,
		mail:     &fakeMailer{},
		notifier: &fakeNotifier{},
		auditor:  &fakeAuditor{},
	}
	logg := logger.New(logger.Options{Output: io.Discard})
	svc, err := NewService(repo, fakeTxRunner{}, courier, env.mail, env.notifier, env.auditor, logg)
	require.NoError(t, err)
	env.svc = svc
	return env
}

func fulfillInput(orderID uuid.UUID) FulfillInput {
	return FulfillInput{
		OrderID:     orderID,
		ServiceID:   "EP-CS-01",
		PickupDate:  time.Now().Add(48 * time.Hour).Format(pickupDateLayout),
		ActorUserID: uuid.New(),
	}
}

func TestFulfill_success(t *testing.T) {
	order := paidOrder()
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	courier := &fakeCourier{}
	env := newOrdersTestEnv(t, repo, courier)

	result, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.NoError(t, err)
	assert.Equal(t, "TRACK-77", result.TrackingNumber)
	assert.Equal(t, "AWB-77", result.AirwayBillNumber)
	assert.Equal(t, "Pos Laju", result.CourierName)
	assert.Equal(t, "EP-1000", result.EasyParcelShipmentID)

	require.NotNil(t, repo.fulfillUpdates)
	assert.Equal(t, enums.OrderStatusReadyToShip, repo.fulfillUpdates["status"])
	assert.Equal(t, 0, repo.fulfillUpdates["failed_booking_attempts"])
	assert.Nil(t, repo.fulfillUpdates["last_booking_error"])

	require.Len(t, env.mail.sent, 1)
	assert.Equal(t, "customer@example.com", env.mail.sent[0].To)
	require.Len(t, env.notifier.notified, 1)
	require.Len(t, env.auditor.entries, 1)
	assert.Equal(t, "order.fulfill", env.auditor.entries[0].Action)
}

func TestFulfill_nonPaidOrderNeverCallsCourier(t *testing.T) {
	order := paidOrder()
	order.Status = enums.OrderStatusPending
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	courier := &fakeCourier{}
	env := newOrdersTestEnv(t, repo, courier)

	_, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidOrderStatus, pkgerrors.As(err).Code())
	assert.Zero(t, courier.createCalls)
	assert.Zero(t, courier.payCalls)
	assert.Empty(t, repo.failures)
}

func TestFulfill_alreadyFulfilledNeverCallsCourier(t *testing.T) {
	order := paidOrder()
	tracking := "TRACK-1"
	awb := "AWB-1"
	order.TrackingNumber = &tracking
	order.AirwayBillNumber = &awb
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	courier := &fakeCourier{}
	env := newOrdersTestEnv(t, repo, courier)

	_, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeAlreadyFulfilled, pkgerrors.As(err).Code())
	assert.Zero(t, courier.createCalls)
}

func TestFulfill_fulfilledGuardWinsOverStatusGuard(t *testing.T) {
	order := paidOrder()
	order.Status = enums.OrderStatusReadyToShip
	tracking := "TRACK-2"
	awb := "AWB-2"
	order.TrackingNumber = &tracking
	order.AirwayBillNumber = &awb
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	courier := &fakeCourier{}
	env := newOrdersTestEnv(t, repo, courier)

	_, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeAlreadyFulfilled, pkgerrors.As(err).Code(),
		"a booked shipment answers before the status check")
	assert.Zero(t, courier.createCalls)
}

func TestFulfill_guards(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(o *models.Order)
		wantCode pkgerrors.Code
	}{
		{
			name:     "missing address",
			mutate:   func(o *models.Order) { o.ShippingAddress = nil },
			wantCode: pkgerrors.CodeInvalidAddress,
		},
		{
			name:     "incomplete address",
			mutate:   func(o *models.Order) { o.ShippingAddress.Postcode = "" },
			wantCode: pkgerrors.CodeInvalidAddress,
		},
		{
			name:     "zero weight",
			mutate:   func(o *models.Order) { o.ShippingWeight = decimal.Zero },
			wantCode: pkgerrors.CodeInvalidWeight,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order := paidOrder()
			tc.mutate(order)
			repo := &fakeRepository{
				findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
					return order, nil
				},
			}
			courier := &fakeCourier{}
			env := newOrdersTestEnv(t, repo, courier)

			_, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, pkgerrors.As(err).Code())
			assert.Zero(t, courier.createCalls)
		})
	}
}

func TestFulfill_missingPickupAddress(t *testing.T) {
	order := paidOrder()
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
		profileFn: func(ctx context.Context) (*models.BusinessProfile, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	courier := &fakeCourier{}
	env := newOrdersTestEnv(t, repo, courier)

	_, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotConfigured, pkgerrors.As(err).Code())
	assert.Zero(t, courier.createCalls)
}

func TestFulfill_createFailureRecordsAttempt(t *testing.T) {
	order := paidOrder()
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	courier := &fakeCourier{
		createFn: func(ctx context.Context, req easyparcel.ShipmentRequest) (*easyparcel.Shipment, error) {
			return nil, &easyparcel.APIError{Action: "EPSubmitOrderBulk", Remark: "no rates for destination"}
		},
	}
	env := newOrdersTestEnv(t, repo, courier)

	_, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	require.Len(t, repo.failures, 1)
	assert.Contains(t, repo.failures[0], "create shipment")
	assert.Zero(t, courier.payCalls)
	assert.Nil(t, repo.fulfillUpdates, "order must not transition on booking failure")
	assert.Empty(t, env.mail.sent)
}

func TestFulfill_insufficientBalanceAttachesBalance(t *testing.T) {
	order := paidOrder()
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	courier := &fakeCourier{
		balance: decimal.NewFromFloat(1.25),
		createFn: func(ctx context.Context, req easyparcel.ShipmentRequest) (*easyparcel.Shipment, error) {
			return nil, fmt.Errorf("%w: insufficient credit", easyparcel.ErrInsufficientBalance)
		},
	}
	env := newOrdersTestEnv(t, repo, courier)

	_, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientBalance, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	balance, ok := details["balance"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, balance.Equal(decimal.NewFromFloat(1.25)))
	require.Len(t, repo.failures, 1)
}

func TestFulfill_payFailureKeepsOrderPaid(t *testing.T) {
	order := paidOrder()
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	courier := &fakeCourier{
		payFn: func(ctx context.Context, orderNumber string) (*easyparcel.PaymentResult, error) {
			return nil, errors.New("gateway timeout")
		},
	}
	env := newOrdersTestEnv(t, repo, courier)

	_, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	// the unpaid aggregator order id is surfaced for manual reconciliation
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "EP-1000", details["easyparcel_order_number"])

	require.Len(t, repo.failures, 1)
	assert.Contains(t, repo.failures[0], "pay shipment")
	assert.Nil(t, repo.fulfillUpdates, "order must stay paid when payment fails")
	assert.Equal(t, 1, courier.createCalls, "no automatic retry")
}

func TestFulfill_emailFailureDoesNotFailFulfillment(t *testing.T) {
	order := paidOrder()
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	courier := &fakeCourier{}
	env := newOrdersTestEnv(t, repo, courier)
	env.mail.err = errors.New("sendgrid unavailable")
	env.notifier.err = errors.New("telegram unavailable")

	result, err := env.svc.Fulfill(context.Background(), fulfillInput(order.ID))
	require.NoError(t, err)
	assert.Equal(t, "TRACK-77", result.TrackingNumber)
}

func TestFulfill_validation(t *testing.T) {
	env := newOrdersTestEnv(t, &fakeRepository{}, &fakeCourier{})

	tests := []struct {
		name   string
		mutate func(in *FulfillInput)
	}{
		{"missing order id", func(in *FulfillInput) { in.OrderID = uuid.Nil }},
		{"missing service id", func(in *FulfillInput) { in.ServiceID = " " }},
		{"bad pickup date", func(in *FulfillInput) { in.PickupDate = "31/12/2026" }},
		{"past pickup date", func(in *FulfillInput) {
			in.PickupDate = time.Now().Add(-72 * time.Hour).Format(pickupDateLayout)
		}},
		{"override without reason", func(in *FulfillInput) { in.OverriddenByAdmin = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := fulfillInput(uuid.New())
			tc.mutate(&input)
			_, err := env.svc.Fulfill(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestUpdate_overrideRecordsAudit(t *testing.T) {
	order := paidOrder()
	repo := &fakeRepository{
		findDetailFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	env := newOrdersTestEnv(t, repo, &fakeCourier{})

	status := enums.OrderStatusCancelled
	updated, err := env.svc.Update(context.Background(), UpdateInput{
		OrderID:     order.ID,
		Status:      &status,
		Reason:      "customer requested cancellation",
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, updated.Status)
	assert.Contains(t, repo.updates, "cancelled_at")
	require.Len(t, env.auditor.entries, 1)
	assert.Equal(t, "order.status_override", env.auditor.entries[0].Action)
}

func TestDelete_recordsAudit(t *testing.T) {
	repo := &fakeRepository{}
	env := newOrdersTestEnv(t, repo, &fakeCourier{})

	orderID := uuid.New()
	require.NoError(t, env.svc.Delete(context.Background(), orderID, uuid.New()))
	require.Len(t, repo.deleted, 1)
	assert.Equal(t, orderID, repo.deleted[0])
	require.Len(t, env.auditor.entries, 1)
	assert.Equal(t, "order.delete", env.auditor.entries[0].Action)
}
