package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

// Repository defines persistence operations for the vendor pool.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error)
	FindByID(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]models.Vendor, error)
	List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*VendorList, error)
	LeadTimeVarianceDays(ctx context.Context, vendorID uuid.UUID) (float64, error)
}

// VendorList is a cursor-paginated page of vendors.
type VendorList struct {
	Vendors    []models.Vendor `json:"vendors"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// OrderSource is the narrow read surface matching needs from the orders
// repository; it keeps this package from depending on the orders service.
type OrderSource interface {
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}
