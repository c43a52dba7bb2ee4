package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate. Save
// applies an optimistic version check; a stale expected version returns a
// retryable conflict rather than silently overwriting.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order, expectedVersion int64) (*models.Order, error)
	NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error)
	List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	AcceptedSessionCount(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
	VendorID   *uuid.UUID
}

// OrderList is a cursor-paginated page of orders.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}
