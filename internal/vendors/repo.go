package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vendors repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if err := r.db.WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

func (r *repository) FindByID(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Where("id = ?", vendorID).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]models.Vendor, error) {
	var pool []models.Vendor
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = TRUE", tenantID).
		Order("created_at ASC").
		Find(&pool).Error
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*VendorList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var vendors []models.Vendor
	if err := query.Find(&vendors).Error; err != nil {
		return nil, err
	}

	list := &VendorList{Vendors: vendors}
	if len(vendors) == limit {
		last := vendors[limit-2]
		list.Vendors = vendors[:limit-1]
		next := pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
		list.NextCursor = &next
	}
	return list, nil
}

// LeadTimeVarianceDays measures how far delivered lead times drift from the
// vendor's average, over orders that reached a terminal or production stage.
func (r *repository) LeadTimeVarianceDays(ctx context.Context, vendorID uuid.UUID) (float64, error) {
	var variance *float64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(STDDEV_POP(vendor_lead_time_days), 0)").
		Where("vendor_id = ? AND vendor_lead_time_days IS NOT NULL AND status IN ?", vendorID, []enums.OrderStatus{
			enums.OrderStatusInProduction,
			enums.OrderStatusQualityControl,
			enums.OrderStatusShipping,
			enums.OrderStatusCompleted,
		}).
		Scan(&variance).Error
	if err != nil {
		return 0, err
	}
	if variance == nil {
		return 0, nil
	}
	return *variance, nil
}
