package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/internal/rules"
	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/metrics"
	"github.com/odalechea/procureflow-backend/pkg/outbox"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

// Customer-facing quotes carry a standard markup over the vendor price when
// a vendor is assigned directly, matching the negotiation conclusion path.
var quoteMarkupFactor = decimal.NewFromFloat(1.2)

// clockNow is swappable in tests.
var clockNow = time.Now

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type rulesProvider interface {
	Engine() rules.Engine
}

// Service owns the canonical order status and validates every requested
// transition's guards before applying it atomically.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	Advance(ctx context.Context, input AdvanceInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	AssignVendor(ctx context.Context, input AssignVendorInput) (*models.Order, error)
	VerifyPayment(ctx context.Context, tenantID, orderID uuid.UUID) (*PaymentProjection, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	rules   rulesProvider
	metrics *metrics.OrderMetrics
}

// CreateOrderInput carries the fields a purchase order is opened with.
type CreateOrderInput struct {
	TenantID    uuid.UUID
	CustomerID  uuid.UUID
	TotalAmount decimal.Decimal
	Currency    string
	Items       []CreateOrderItem
	Notes       *string
	ActorID     uuid.UUID
	ActorRole   string
}

// CreateOrderItem is one requested line.
type CreateOrderItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// AdvanceInput requests a transition to the defined next stage.
type AdvanceInput struct {
	TenantID    uuid.UUID
	OrderID     uuid.UUID
	TargetStage enums.OrderStatus
	Notes       *string
	ActorID     uuid.UUID
	ActorRole   string
}

// CancelInput terminates an order before the cancellation cutoff.
type CancelInput struct {
	TenantID  uuid.UUID
	OrderID   uuid.UUID
	Reason    string
	ActorID   uuid.UUID
	ActorRole string
}

// AssignVendorInput assigns a vendor directly during sourcing, bypassing
// negotiation.
type AssignVendorInput struct {
	TenantID     uuid.UUID
	OrderID      uuid.UUID
	VendorID     uuid.UUID
	QuotedPrice  decimal.Decimal
	LeadTimeDays int
	ActorID      uuid.UUID
	ActorRole    string
}

// PaymentProjection is the order's payment state as the order aggregate
// sees it.
type PaymentProjection struct {
	OrderID       uuid.UUID           `json:"order_id"`
	PaidAmount    decimal.Decimal     `json:"paid_amount"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Remaining     decimal.Decimal     `json:"remaining"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// StageChangedEvent is emitted on every successful transition.
type StageChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	TenantID  uuid.UUID         `json:"tenant_id"`
	OldStatus enums.OrderStatus `json:"old_status"`
	NewStatus enums.OrderStatus `json:"new_status"`
	Reason    string            `json:"reason,omitempty"`
}

// OrderCreatedEvent is emitted when an order is opened.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	OrderNumber int64           `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// NewService builds the order state machine service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, rulesSvc rulesProvider, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if rulesSvc == nil {
		return nil, fmt.Errorf("rules provider required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, rules: rulesSvc, metrics: m}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if !input.TotalAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be positive")
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		number, err := repo.NextOrderNumber(ctx, input.TenantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		order = &models.Order{
			TenantID:      input.TenantID,
			CustomerID:    input.CustomerID,
			OrderNumber:   number,
			Status:        enums.OrderStatusPending,
			TotalAmount:   input.TotalAmount,
			Currency:      currency,
			PaidAmount:    decimal.Zero,
			PaymentStatus: enums.PaymentStatusUnpaid,
			Notes:         input.Notes,
			Version:       1,
		}
		for _, item := range input.Items {
			if item.Quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
			}
			order.Items = append(order.Items, models.OrderItem{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		return s.emit(ctx, tx, enums.EventOrderCreated, order.ID, input.ActorID, input.TenantID, input.ActorRole, OrderCreatedEvent{
			OrderID:     order.ID,
			TenantID:    input.TenantID,
			CustomerID:  input.CustomerID,
			OrderNumber: number,
			TotalAmount: input.TotalAmount,
			Currency:    currency,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	return s.loadTenantOrder(ctx, s.repo, tenantID, orderID)
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	list, err := s.repo.List(ctx, tenantID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) Advance(ctx context.Context, input AdvanceInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.TargetStage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target stage %q", input.TargetStage))
	}
	if input.TargetStage == enums.OrderStatusCancelled {
		reason := ""
		if input.Notes != nil {
			reason = *input.Notes
		}
		return s.Cancel(ctx, CancelInput{
			TenantID:  input.TenantID,
			OrderID:   input.OrderID,
			Reason:    reason,
			ActorID:   input.ActorID,
			ActorRole: input.ActorRole,
		})
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadTenantOrder(ctx, repo, input.TenantID, input.OrderID)
		if err != nil {
			return err
		}
		if loaded.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s, no further transitions", loaded.Status))
		}
		if !CanTransition(loaded.Status, input.TargetStage) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot advance from %s to %s", loaded.Status, input.TargetStage))
		}

		if loaded.Status == enums.OrderStatusVendorNegotiation && input.TargetStage == enums.OrderStatusCustomerQuote {
			if err := s.guardAcceptedQuote(ctx, repo, loaded); err != nil {
				if s.metrics != nil {
					s.metrics.IncGuardFailure(enums.OrderStatusVendorNegotiation.String())
				}
				return err
			}
		}

		oldStatus := loaded.Status
		loaded.Status = input.TargetStage
		if input.Notes != nil {
			loaded.Notes = input.Notes
		}
		if input.TargetStage == enums.OrderStatusCompleted {
			now := clockNow()
			loaded.CompletedAt = &now
		}

		saved, err := repo.Save(ctx, loaded, loaded.Version)
		if err != nil {
			return err
		}
		order = saved

		return s.emit(ctx, tx, enums.EventOrderStageChanged, saved.ID, input.ActorID, input.TenantID, input.ActorRole, StageChangedEvent{
			OrderID:   saved.ID,
			TenantID:  input.TenantID,
			OldStatus: oldStatus,
			NewStatus: saved.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncTransition(order.Status.String())
	}
	return order, nil
}

// guardAcceptedQuote is the vendor_negotiation -> customer_quote entry
// guard. Exactly one accepted session must exist, and the quote projection
// on the order must be complete. Each missing field gets its own message
// because a gap there is a synchronization defect, not a business
// violation. Errors are keyed by guard name so callers can tell "no
// accepted quote" apart from an inconsistent projection.
func (s *service) guardAcceptedQuote(ctx context.Context, repo Repository, order *models.Order) error {
	accepted, err := repo.AcceptedSessionCount(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count accepted sessions")
	}
	guard := enums.OrderStatusVendorNegotiation.String()
	if accepted == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no accepted quote").
			WithDetails(map[string]any{guard: []string{"no accepted quote for this order"}})
	}

	var missing []string
	if order.VendorID == nil {
		missing = append(missing, "accepted quote exists but vendor id is not set on the order")
	}
	if order.VendorQuotedPrice == nil {
		missing = append(missing, "accepted quote exists but vendor quoted price is not set on the order")
	}
	if order.QuotationAmount == nil {
		missing = append(missing, "accepted quote exists but quotation amount is not set on the order")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "accepted quote projection is incomplete").
			WithDetails(map[string]any{guard: missing})
	}
	return nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadTenantOrder(ctx, repo, input.TenantID, input.OrderID)
		if err != nil {
			return err
		}
		if loaded.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s, no further transitions", loaded.Status))
		}

		cutoff := s.rules.Engine().Rules().CancellationCutoffStage
		if !Cancellable(loaded.Status, cutoff) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(
				"order in %s (stage %d) is at or past the %s cutoff and can no longer be cancelled",
				loaded.Status, StagePosition(loaded.Status), cutoff))
		}

		oldStatus := loaded.Status
		now := clockNow()
		loaded.Status = enums.OrderStatusCancelled
		loaded.CancelledAt = &now
		if input.Reason != "" {
			reason := input.Reason
			loaded.CancelReason = &reason
		}

		saved, err := repo.Save(ctx, loaded, loaded.Version)
		if err != nil {
			return err
		}
		order = saved

		return s.emit(ctx, tx, enums.EventOrderCancelled, saved.ID, input.ActorID, input.TenantID, input.ActorRole, StageChangedEvent{
			OrderID:   saved.ID,
			TenantID:  input.TenantID,
			OldStatus: oldStatus,
			NewStatus: enums.OrderStatusCancelled,
			Reason:    input.Reason,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncTransition(enums.OrderStatusCancelled.String())
	}
	return order, nil
}

func (s *service) AssignVendor(ctx context.Context, input AssignVendorInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and vendor id required")
	}
	if input.QuotedPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quoted price must be non-negative")
	}
	if input.LeadTimeDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time must be positive")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadTenantOrder(ctx, repo, input.TenantID, input.OrderID)
		if err != nil {
			return err
		}
		if loaded.Status != enums.OrderStatusVendorSourcing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("vendor can only be assigned during vendor_sourcing, order is %s", loaded.Status))
		}

		// The quote projection is populated whole; the guard rejects
		// partial population.
		vendorID := input.VendorID
		quoted := input.QuotedPrice
		quotation := quoted.Mul(quoteMarkupFactor).Round(2)
		leadDays := input.LeadTimeDays
		loaded.VendorID = &vendorID
		loaded.VendorQuotedPrice = &quoted
		loaded.QuotationAmount = &quotation
		loaded.VendorLeadTimeDays = &leadDays

		saved, err := repo.Save(ctx, loaded, loaded.Version)
		if err != nil {
			return err
		}
		order = saved

		return s.emit(ctx, tx, enums.EventVendorAssigned, saved.ID, input.ActorID, input.TenantID, input.ActorRole, map[string]any{
			"order_id":       saved.ID,
			"vendor_id":      input.VendorID,
			"quoted_price":   input.QuotedPrice,
			"lead_time_days": input.LeadTimeDays,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) VerifyPayment(ctx context.Context, tenantID, orderID uuid.UUID) (*PaymentProjection, error) {
	order, err := s.loadTenantOrder(ctx, s.repo, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return &PaymentProjection{
		OrderID:       order.ID,
		PaidAmount:    order.PaidAmount,
		TotalAmount:   order.TotalAmount,
		Remaining:     order.TotalAmount.Sub(order.PaidAmount),
		PaymentStatus: order.PaymentStatus,
	}, nil
}

func (s *service) loadTenantOrder(ctx context.Context, repo Repository, tenantID, orderID uuid.UUID) (*models.Order, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to tenant")
	}
	return order, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, orderID, actorID, tenantID uuid.UUID, role string, data any) error {
	var actor *outbox.ActorRef
	if actorID != uuid.Nil {
		actor = &outbox.ActorRef{UserID: actorID, TenantID: tenantID, Role: role}
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         actor,
		Data:          data,
		Version:       1,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
	}
	return nil
}
