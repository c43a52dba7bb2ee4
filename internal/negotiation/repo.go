package negotiation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a negotiation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.NegotiationSession) (*models.NegotiationSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindByID(ctx context.Context, sessionID uuid.UUID) (*models.NegotiationSession, error) {
	var session models.NegotiationSession
	err := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.NegotiationSession, error) {
	var sessions []models.NegotiationSession
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) CountAcceptedForOrder(ctx context.Context, orderID uuid.UUID, excludeSessionID uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.NegotiationSession{}).
		Where("order_id = ? AND status = ?", orderID, enums.NegotiationStatusAccepted)
	if excludeSessionID != uuid.Nil {
		query = query.Where("id <> ?", excludeSessionID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Update(ctx context.Context, session *models.NegotiationSession) (*models.NegotiationSession, error) {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]models.NegotiationSession, error) {
	var sessions []models.NegotiationSession
	query := r.db.WithContext(ctx).
		Where("deadline IS NOT NULL AND deadline < ? AND status IN ?", now, []enums.NegotiationStatus{
			enums.NegotiationStatusOpen,
			enums.NegotiationStatusCountered,
			enums.NegotiationStatusEscalated,
		}).
		Order("deadline ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveOrderQuote materializes the accepted quote onto the order under an
// optimistic version check.
func (r *repository) SaveOrderQuote(ctx context.Context, order *models.Order, expectedVersion int64) (*models.Order, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]any{
			"vendor_id":             order.VendorID,
			"vendor_quoted_price":   order.VendorQuotedPrice,
			"quotation_amount":      order.QuotationAmount,
			"vendor_lead_time_days": order.VendorLeadTimeDays,
			"negotiation_notes":     order.NegotiationNotes,
			"vendor_terms":          order.VendorTerms,
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
