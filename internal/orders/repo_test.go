package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT,
  last_name TEXT,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  is_member INTEGER NOT NULL DEFAULT 0,
  member_since DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	addresses := `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postcode TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT 'MY',
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT,
  guest_email TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  subtotal NUMERIC NOT NULL,
  tax NUMERIC NOT NULL DEFAULT 0,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  discount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  shipping_weight NUMERIC NOT NULL DEFAULT 0,
  shipping_address_id TEXT,
  billing_address_id TEXT,
  courier_name TEXT,
  courier_service_id TEXT,
  tracking_number TEXT,
  airway_bill_number TEXT,
  airway_bill_url TEXT,
  scheduled_pickup_date DATETIME,
  easyparcel_order_id TEXT,
  overridden_by_admin INTEGER NOT NULL DEFAULT 0,
  admin_override_reason TEXT,
  failed_booking_attempts INTEGER NOT NULL DEFAULT 0,
  last_booking_error TEXT,
  discount_code_id TEXT,
  paid_at DATETIME,
  fulfilled_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  member_priced INTEGER NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  weight_kg NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	profiles := `
CREATE TABLE IF NOT EXISTS business_profiles (
  id TEXT PRIMARY KEY,
  business_name TEXT NOT NULL,
  registration_no TEXT,
  pickup_name TEXT,
  pickup_phone TEXT,
  pickup_line1 TEXT,
  pickup_line2 TEXT,
  pickup_city TEXT,
  pickup_state TEXT,
  pickup_postcode TEXT,
  pickup_country TEXT NOT NULL DEFAULT 'MY',
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{users, addresses, orders, orderItems, profiles} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, number string, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    number,
		Status:         status,
		PaymentStatus:  enums.PaymentStatusPaid,
		Subtotal:       decimal.NewFromInt(100),
		Total:          decimal.NewFromInt(110),
		ShippingWeight: decimal.NewFromFloat(1.5),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, db.Create(order).Error)

	item := &models.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		SKU:       "JRM-001",
		Name:      "Herbal Supplement",
		Qty:       2,
		UnitPrice: decimal.NewFromInt(50),
		Total:     decimal.NewFromInt(100),
		WeightKG:  decimal.NewFromFloat(0.75),
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(item).Error)
	return order
}

func TestRepositoryList_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createTestOrder(t, db, "JRM-1001", enums.OrderStatusPaid, now.Add(-time.Hour))
	newer := createTestOrder(t, db, "JRM-1002", enums.OrderStatusPaid, now)

	list, err := repo.List(context.Background(), pagination.Params{Limit: 1}, Filters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.NotNil(t, list.NextCursor)
	assert.Equal(t, newer.OrderNumber, list.Orders[0].OrderNumber)
	assert.Len(t, list.Orders[0].Items, 1)

	second, err := repo.List(context.Background(), pagination.Params{Limit: 1, Cursor: *list.NextCursor}, Filters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, "JRM-1001", second.Orders[0].OrderNumber)
	assert.Nil(t, second.NextCursor)
}

func TestRepositoryList_filters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createTestOrder(t, db, "JRM-2001", enums.OrderStatusPaid, now.Add(-time.Hour))
	createTestOrder(t, db, "JRM-2002", enums.OrderStatusDelivered, now)

	status := enums.OrderStatusDelivered
	list, err := repo.List(context.Background(), pagination.Params{Limit: 10}, Filters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "JRM-2002", list.Orders[0].OrderNumber)

	list, err = repo.List(context.Background(), pagination.Params{Limit: 10}, Filters{Query: "jrm-2001"})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "JRM-2001", list.Orders[0].OrderNumber)
}

func TestRepositoryFindDetail_preloadsAssociations(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, "JRM-3001", enums.OrderStatusPaid, time.Now().UTC())

	address := &models.Address{
		ID:       uuid.New(),
		Name:     "Aisyah Binti Rahman",
		Phone:    "+60123456789",
		Line1:    "12 Jalan Ampang",
		City:     "Kuala Lumpur",
		State:    "Wilayah Persekutuan",
		Postcode: "50450",
		Country:  "MY",
	}
	require.NoError(t, db.Create(address).Error)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		UpdateColumn("shipping_address_id", address.ID).Error)

	found, err := repo.FindDetail(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.ShippingAddress)
	assert.Equal(t, address.Name, found.ShippingAddress.Name)
	assert.Len(t, found.Items, 1)
}

func TestRepositoryFindDetail_notFound(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindDetail(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryRecordBookingFailure_increments(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, "JRM-4001", enums.OrderStatusPaid, time.Now().UTC())

	require.NoError(t, repo.RecordBookingFailure(context.Background(), order.ID, "create shipment: no rates"))
	require.NoError(t, repo.RecordBookingFailure(context.Background(), order.ID, "create shipment: still no rates"))

	found, err := repo.FindDetail(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.FailedBookingAttempts)
	require.NotNil(t, found.LastBookingError)
	assert.Equal(t, "create shipment: still no rates", *found.LastBookingError)
	assert.Equal(t, enums.OrderStatusPaid, found.Status)
}

func TestRepositoryUpdateFulfillment(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, "JRM-5001", enums.OrderStatusPaid, time.Now().UTC())

	updates := map[string]any{
		"status":                  enums.OrderStatusReadyToShip,
		"tracking_number":         "EP-TRACK-1",
		"airway_bill_number":      "AWB-1",
		"failed_booking_attempts": 0,
		"last_booking_error":      nil,
	}
	require.NoError(t, repo.UpdateFulfillment(context.Background(), order.ID, updates))

	found, err := repo.FindDetail(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReadyToShip, found.Status)
	require.NotNil(t, found.TrackingNumber)
	assert.Equal(t, "EP-TRACK-1", *found.TrackingNumber)
	assert.True(t, found.IsFulfilled())

	err = repo.UpdateFulfillment(context.Background(), uuid.New(), updates)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, "JRM-6001", enums.OrderStatusCancelled, time.Now().UTC())

	require.NoError(t, repo.Delete(context.Background(), order.ID))
	assert.ErrorIs(t, repo.Delete(context.Background(), order.ID), gorm.ErrRecordNotFound)
}

func TestRepositoryStats(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createTestOrder(t, db, "JRM-7001", enums.OrderStatusPaid, now.Add(-2*time.Hour))
	createTestOrder(t, db, "JRM-7002", enums.OrderStatusDelivered, now.Add(-time.Hour))
	createTestOrder(t, db, "JRM-7003", enums.OrderStatusCancelled, now)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.CountsByStatus[enums.OrderStatusPaid])
	assert.Equal(t, int64(1), stats.CountsByStatus[enums.OrderStatusDelivered])
	// cancelled orders are excluded from revenue
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(220)), "revenue %s", stats.Revenue)
	assert.Equal(t, int64(1), stats.PendingBooking)
}

func TestRepositoryFindBusinessProfile(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindBusinessProfile(context.Background())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	profile := &models.BusinessProfile{
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
	require.NoError(t, db.Create(profile).Error)

	found, err := repo.FindBusinessProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, profile.BusinessName, found.BusinessName)
	assert.True(t, found.HasPickupAddress())
}
