package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/db"
	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
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

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		// Two concurrent creates can draw the same order number.
		if db.IsUniqueViolation(err, "uq_orders_tenant_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeVersionConflict, err, "order number already taken, retry the create")
		}
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Save applies the order's mutable fields under an optimistic version check.
func (r *repository) Save(ctx context.Context, order *models.Order, expectedVersion int64) (*models.Order, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]any{
			"status":                order.Status,
			"vendor_id":             order.VendorID,
			"vendor_quoted_price":   order.VendorQuotedPrice,
			"quotation_amount":      order.QuotationAmount,
			"vendor_lead_time_days": order.VendorLeadTimeDays,
			"negotiation_notes":     order.NegotiationNotes,
			"vendor_terms":          order.VendorTerms,
			"notes":                 order.Notes,
			"cancel_reason":         order.CancelReason,
			"cancelled_at":          order.CancelledAt,
			"completed_at":          order.CompletedAt,
			"version":               expectedVersion + 1,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeVersionConflict, "order was modified concurrently")
	}
	order.Version = expectedVersion + 1
	return order, nil
}

func (r *repository) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var max *int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("MAX(order_number)").
		Where("tenant_id = ?", tenantID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.VendorID != nil {
		query = query.Where("vendor_id = ?", *filters.VendorID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}

	list := &OrderList{Orders: orders}
	if len(orders) == limit {
		last := orders[limit-2]
		list.Orders = orders[:limit-1]
		next := pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
		list.NextCursor = &next
	}
	return list, nil
}

func (r *repository) AcceptedSessionCount(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NegotiationSession{}).
		Where("order_id = ? AND status = ?", orderID, enums.NegotiationStatusAccepted).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
