package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecomjrm/ecomjrm-backend/pkg/db/models"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	"github.com/ecomjrm/ecomjrm-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ShippingAddress").
		Preload("BillingAddress").
		Preload("User").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(COALESCE(guest_email, '')) LIKE ?", pattern, pattern)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at < ?", *filters.To)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{Orders: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Orders = rows[:normalized]
		encoded := pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
		list.NextCursor = &encoded
	}
	return list, nil
}

func (r *repository) UpdateFulfillment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) RecordBookingFailure(ctx context.Context, orderID uuid.UUID, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"failed_booking_attempts": gorm.Expr("failed_booking_attempts + 1"),
			"last_booking_error":      message,
		}).Error
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		Delete(&models.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindBusinessProfile(ctx context.Context) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{CountsByStatus: map[enums.OrderStatus]int64{}}

	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status enums.OrderStatus
		Total  int64
	}
	var counts []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, row := range counts {
		stats.CountsByStatus[row.Status] = row.Total
	}

	type revenueRow struct {
		Revenue decimal.Decimal
	}
	var revenue revenueRow
	err = r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue").
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusRefunded}).
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	stats.Revenue = revenue.Revenue

	err = r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND tracking_number IS NULL", enums.OrderStatusPaid).
		Count(&stats.PendingBooking).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
