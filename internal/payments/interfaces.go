package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
)

// Repository defines persistence operations for the payment ledger and the
// order rows it reconciles against. Ledger rows are append-only; there is
// no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error)
	SumForOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentRecord, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order, expectedVersion int64) (*models.Order, error)
}
