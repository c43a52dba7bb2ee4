package negotiation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
)

// Repository defines persistence operations for negotiation sessions and
// the order rows a conclusion projects onto.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.NegotiationSession) (*models.NegotiationSession, error)
	FindByID(ctx context.Context, sessionID uuid.UUID) (*models.NegotiationSession, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.NegotiationSession, error)
	CountAcceptedForOrder(ctx context.Context, orderID uuid.UUID, excludeSessionID uuid.UUID) (int64, error)
	Update(ctx context.Context, session *models.NegotiationSession) (*models.NegotiationSession, error)
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]models.NegotiationSession, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	SaveOrderQuote(ctx context.Context, order *models.Order, expectedVersion int64) (*models.Order, error)
}
