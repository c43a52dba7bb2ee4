package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/metrics"
	"github.com/odalechea/procureflow-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service tracks incremental payments against orders and classifies the
// resulting payment status.
type Service interface {
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentProjection, error)
	History(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.PaymentRecord, error)
	CalculateDownPayment(total decimal.Decimal, percentage float64) (DownPaymentSplit, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.OrderMetrics
}

// RecordPaymentInput carries one incoming payment against an order.
type RecordPaymentInput struct {
	TenantID  uuid.UUID
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	Method    enums.PaymentMethod
	Reference string
	ActorID   uuid.UUID
	ActorRole string
}

// PaymentProjection is the order's payment state after a recording.
type PaymentProjection struct {
	OrderID       uuid.UUID           `json:"order_id"`
	PaidAmount    decimal.Decimal     `json:"paid_amount"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Remaining     decimal.Decimal     `json:"remaining"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// DownPaymentSplit is a proportional split of an order total.
type DownPaymentSplit struct {
	DownPayment decimal.Decimal `json:"down_payment"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// PaymentRecordedEvent is emitted for every accepted ledger entry.
type PaymentRecordedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	TenantID      uuid.UUID           `json:"tenant_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Method        enums.PaymentMethod `json:"method"`
	Reference     string              `json:"reference"`
	PaidAmount    decimal.Decimal     `json:"paid_amount"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// NewService builds a payment tracker with the required dependencies.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, metrics: m}, nil
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*PaymentProjection, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be non-negative")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}

	var projection *PaymentProjection
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.TenantID != input.TenantID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to tenant")
		}

		// The balance check runs against the remaining balance inside the
		// same transaction that appends the record, so two concurrent
		// recordings cannot both validate against a stale total.
		paid, err := repo.SumForOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
		}
		if paid.Add(input.Amount).GreaterThan(order.TotalAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment amount exceeds order total").
				WithDetails(map[string]any{
					"remaining": order.TotalAmount.Sub(paid).String(),
					"attempted": input.Amount.String(),
				})
		}

		record := &models.PaymentRecord{
			TenantID:   input.TenantID,
			OrderID:    order.ID,
			Amount:     input.Amount,
			Method:     input.Method,
			Reference:  input.Reference,
			RecordedBy: input.ActorID,
		}
		if _, err := repo.Insert(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append payment record")
		}

		newPaid := paid.Add(input.Amount)
		order.PaidAmount = newPaid
		order.PaymentStatus = ClassifyPaymentStatus(newPaid, order.TotalAmount)

		saved, err := repo.SaveOrder(ctx, order, order.Version)
		if err != nil {
			return err
		}

		actor := &outbox.ActorRef{UserID: input.ActorID, TenantID: input.TenantID, Role: input.ActorRole}
		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePaymentRecord,
			AggregateID:   record.ID,
			Actor:         actor,
			Data: PaymentRecordedEvent{
				OrderID:       order.ID,
				TenantID:      input.TenantID,
				Amount:        input.Amount,
				Method:        input.Method,
				Reference:     input.Reference,
				PaidAmount:    newPaid,
				PaymentStatus: saved.PaymentStatus,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment event")
		}
		if saved.PaymentStatus == enums.PaymentStatusFull {
			event.EventType = enums.EventOrderFullyPaid
			event.AggregateType = enums.AggregateOrder
			event.AggregateID = order.ID
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit fully paid event")
			}
		}

		projection = &PaymentProjection{
			OrderID:       order.ID,
			PaidAmount:    newPaid,
			TotalAmount:   order.TotalAmount,
			Remaining:     order.TotalAmount.Sub(newPaid),
			PaymentStatus: saved.PaymentStatus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncPayment(projection.PaymentStatus.String())
	}
	return projection, nil
}

func (s *service) History(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.PaymentRecord, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to tenant")
	}
	records, err := s.repo.ListForOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return records, nil
}

// CalculateDownPayment splits the total proportionally. The percentage must
// lie in [0,100].
func (s *service) CalculateDownPayment(total decimal.Decimal, percentage float64) (DownPaymentSplit, error) {
	if percentage < 0 || percentage > 100 {
		return DownPaymentSplit{}, pkgerrors.New(pkgerrors.CodeValidation, "down payment percentage must be between 0 and 100")
	}
	down := total.Mul(decimal.NewFromFloat(percentage)).Div(decimal.NewFromInt(100)).Round(2)
	return DownPaymentSplit{
		DownPayment: down,
		Remaining:   total.Sub(down),
	}, nil
}

// ClassifyPaymentStatus buckets a cumulative paid amount against the total.
func ClassifyPaymentStatus(paid, total decimal.Decimal) enums.PaymentStatus {
	switch {
	case !paid.IsPositive():
		return enums.PaymentStatusUnpaid
	case paid.GreaterThanOrEqual(total):
		return enums.PaymentStatusFull
	default:
		return enums.PaymentStatusPartial
	}
}
