package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/internal/rules"
	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/outbox"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubRules struct {
	cutoff enums.OrderStatus
}

func (s stubRules) Engine() rules.Engine {
	cutoff := s.cutoff
	if cutoff == "" {
		cutoff = enums.OrderStatusInProduction
	}
	return rules.NewEngine(rules.RuleSet{
		MaxNegotiationRounds:    5,
		MinDiscountPercent:      2,
		MaxDiscountPercent:      25,
		AutoApprovalAmount:      decimal.NewFromInt(10000),
		MinDownPaymentPercent:   20,
		MaxDownPaymentPercent:   50,
		MaxPaymentTermDays:      90,
		AutoDisbursementAmount:  decimal.NewFromInt(5000),
		MinQualityRating:        3.5,
		MinOnTimeRate:           0.85,
		MinCompletionRate:       0.9,
		MaxLeadTimeVarianceDays: 3,
		CancellationCutoffStage: cutoff,
	})
}

type stubOrdersRepo struct {
	orders        map[uuid.UUID]*models.Order
	acceptedCount int64
	nextNumber    int64
	saveErr       error
}

func newStubRepo() *stubOrdersRepo {
	return &stubOrdersRepo{orders: map[uuid.UUID]*models.Order{}, nextNumber: 1}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copy := *order
	s.orders[order.ID] = &copy
	return order, nil
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := s.orders[orderID]; ok {
		copy := *o
		return &copy, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) Save(ctx context.Context, order *models.Order, expectedVersion int64) (*models.Order, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	stored := s.orders[order.ID]
	if stored == nil || stored.Version != expectedVersion {
		return nil, pkgerrors.New(pkgerrors.CodeVersionConflict, "order was modified concurrently")
	}
	order.Version = expectedVersion + 1
	copy := *order
	s.orders[order.ID] = &copy
	return order, nil
}

func (s *stubOrdersRepo) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	n := s.nextNumber
	s.nextNumber++
	return n, nil
}

func (s *stubOrdersRepo) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.TenantID == tenantID {
			out = append(out, *o)
		}
	}
	return &OrderList{Orders: out}, nil
}

func (s *stubOrdersRepo) AcceptedSessionCount(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return s.acceptedCount, nil
}

func newTestService(t *testing.T, repo *stubOrdersRepo) (Service, *stubEmitter) {
	t.Helper()
	return newTestServiceWithCutoff(t, repo, "")
}

func newTestServiceWithCutoff(t *testing.T, repo *stubOrdersRepo, cutoff enums.OrderStatus) (Service, *stubEmitter) {
	t.Helper()
	emitter := &stubEmitter{}
	svc, err := NewService(repo, stubTxRunner{}, emitter, stubRules{cutoff: cutoff}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, emitter
}

func seedOrder(repo *stubOrdersRepo, tenantID uuid.UUID, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		TenantID:      tenantID,
		CustomerID:    uuid.New(),
		OrderNumber:   1,
		Status:        status,
		TotalAmount:   decimal.NewFromInt(100000),
		Currency:      "USD",
		PaidAmount:    decimal.Zero,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Version:       1,
	}
	copy := *order
	repo.orders[order.ID] = &copy
	return order
}

func withQuote(order *models.Order, repo *stubOrdersRepo) {
	vendorID := uuid.New()
	price := decimal.NewFromInt(92000)
	quotation := decimal.NewFromInt(110400)
	lead := 7
	stored := repo.orders[order.ID]
	stored.VendorID = &vendorID
	stored.VendorQuotedPrice = &price
	stored.QuotationAmount = &quotation
	stored.VendorLeadTimeDays = &lead
}

func advance(svc Service, tenantID, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	return svc.Advance(context.Background(), AdvanceInput{
		TenantID:    tenantID,
		OrderID:     orderID,
		TargetStage: target,
		ActorID:     uuid.New(),
	})
}

func TestCreateOrderStartsPending(t *testing.T) {
	repo := newStubRepo()
	svc, emitter := newTestService(t, repo)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		TenantID:    uuid.New(),
		CustomerID:  uuid.New(),
		TotalAmount: decimal.NewFromInt(50000),
		Items: []CreateOrderItem{
			{Description: "aluminum brackets", Quantity: 500, UnitPrice: decimal.NewFromInt(100)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.Currency != "USD" {
		t.Fatalf("expected USD default, got %s", order.Currency)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatal("expected order_created event")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())

	_, err := svc.Create(context.Background(), CreateOrderInput{
		TenantID:    uuid.New(),
		CustomerID:  uuid.New(),
		TotalAmount: decimal.Zero,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("zero total must fail validation, got %v", err)
	}
}

func TestAdvanceOneStageAtATime(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()
	order := seedOrder(repo, tenantID, enums.OrderStatusPending)

	updated, err := advance(svc, tenantID, order.ID, enums.OrderStatusVendorSourcing)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if updated.Status != enums.OrderStatusVendorSourcing {
		t.Fatalf("expected vendor_sourcing, got %s", updated.Status)
	}

	// Skipping a stage is rejected.
	if _, err := advance(svc, tenantID, order.ID, enums.OrderStatusCustomerQuote); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("stage skip must be rejected, got %v", err)
	}
}

func TestAdvanceGuardNoAcceptedQuote(t *testing.T) {
	repo := newStubRepo()
	repo.acceptedCount = 0
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()
	order := seedOrder(repo, tenantID, enums.OrderStatusVendorNegotiation)
	withQuote(order, repo)

	_, err := advance(svc, tenantID, order.ID, enums.OrderStatusCustomerQuote)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected guard failure, got %v", err)
	}
	if pkgerrors.Message(err) != "no accepted quote" {
		t.Fatalf("expected no-accepted-quote message, got %q", pkgerrors.Message(err))
	}
	details, ok := pkgerrors.Details(err).(map[string]any)
	if !ok {
		t.Fatal("guard errors must carry guard-keyed details")
	}
	if _, ok := details[enums.OrderStatusVendorNegotiation.String()]; !ok {
		t.Fatal("details must be keyed by guard name")
	}
}

func TestAdvanceGuardSucceedsWithAcceptedQuote(t *testing.T) {
	repo := newStubRepo()
	repo.acceptedCount = 1
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()
	order := seedOrder(repo, tenantID, enums.OrderStatusVendorNegotiation)
	withQuote(order, repo)

	updated, err := advance(svc, tenantID, order.ID, enums.OrderStatusCustomerQuote)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if updated.Status != enums.OrderStatusCustomerQuote {
		t.Fatalf("expected customer_quote, got %s", updated.Status)
	}
}

func TestAdvanceGuardFieldSpecificErrors(t *testing.T) {
	tenantID := uuid.New()
	cases := []struct {
		name  string
		strip func(o *models.Order)
		want  string
	}{
		{"vendor id", func(o *models.Order) { o.VendorID = nil }, "vendor id"},
		{"vendor quoted price", func(o *models.Order) { o.VendorQuotedPrice = nil }, "vendor quoted price"},
		{"quotation amount", func(o *models.Order) { o.QuotationAmount = nil }, "quotation amount"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubRepo()
			repo.acceptedCount = 1
			svc, _ := newTestService(t, repo)
			order := seedOrder(repo, tenantID, enums.OrderStatusVendorNegotiation)
			withQuote(order, repo)
			tc.strip(repo.orders[order.ID])

			_, err := advance(svc, tenantID, order.ID, enums.OrderStatusCustomerQuote)
			if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				t.Fatalf("expected guard failure, got %v", err)
			}
			details := pkgerrors.Details(err).(map[string]any)
			msgs := details[enums.OrderStatusVendorNegotiation.String()].([]string)
			if len(msgs) != 1 {
				t.Fatalf("expected exactly one field error, got %v", msgs)
			}
			if !strings.Contains(msgs[0], tc.want) {
				t.Fatalf("error %q does not name field %q", msgs[0], tc.want)
			}
		})
	}
}

func TestAcceptedQuoteGuardScopedToNegotiationTransition(t *testing.T) {
	repo := newStubRepo()
	repo.acceptedCount = 0 // no accepted session anywhere
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()

	// Every other forward transition proceeds without an accepted quote.
	order := seedOrder(repo, tenantID, enums.OrderStatusCustomerQuote)
	if _, err := advance(svc, tenantID, order.ID, enums.OrderStatusAwaitingPayment); err != nil {
		t.Fatalf("customer_quote -> awaiting_payment must not consult the quote guard: %v", err)
	}
}

func TestAdvanceTerminalStatesIdempotent(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()

	for _, terminal := range []enums.OrderStatus{enums.OrderStatusCompleted, enums.OrderStatusCancelled} {
		order := seedOrder(repo, tenantID, terminal)
		for _, target := range []enums.OrderStatus{
			enums.OrderStatusVendorSourcing,
			enums.OrderStatusInProduction,
			enums.OrderStatusCompleted,
			enums.OrderStatusCancelled,
		} {
			if _, err := advance(svc, tenantID, order.ID, target); err == nil {
				t.Fatalf("advance from %s to %s must fail", terminal, target)
			}
		}
	}
}

func TestAdvanceTenantIsolation(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(t, repo)
	order := seedOrder(repo, uuid.New(), enums.OrderStatusPending)

	_, err := advance(svc, uuid.New(), order.ID, enums.OrderStatusVendorSourcing)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("cross-tenant advance must be forbidden, not %v", err)
	}

	if _, err := svc.Get(context.Background(), uuid.New(), order.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("cross-tenant get must be forbidden, not %v", err)
	}
}

func TestAdvanceVersionConflictSurfaces(t *testing.T) {
	repo := newStubRepo()
	repo.saveErr = pkgerrors.New(pkgerrors.CodeVersionConflict, "order was modified concurrently")
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()
	order := seedOrder(repo, tenantID, enums.OrderStatusPending)

	_, err := advance(svc, tenantID, order.ID, enums.OrderStatusVendorSourcing)
	if !pkgerrors.IsCode(err, pkgerrors.CodeVersionConflict) {
		t.Fatalf("concurrent write must surface as a version conflict, got %v", err)
	}
	if !pkgerrors.MetadataFor(pkgerrors.CodeVersionConflict).Retryable {
		t.Fatal("version conflicts must be marked retryable")
	}
}

func TestCancelBeforeCutoff(t *testing.T) {
	repo := newStubRepo()
	svc, emitter := newTestService(t, repo)
	tenantID := uuid.New()
	order := seedOrder(repo, tenantID, enums.OrderStatusAwaitingPayment)

	cancelled, err := svc.Cancel(context.Background(), CancelInput{
		TenantID: tenantID,
		OrderID:  order.ID,
		Reason:   "customer withdrew",
		ActorID:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil || cancelled.CancelReason == nil {
		t.Fatal("cancellation metadata missing")
	}

	var event bool
	for _, e := range emitter.events {
		if e.EventType == enums.EventOrderCancelled {
			event = true
		}
	}
	if !event {
		t.Fatal("expected order_cancelled event")
	}
}

func TestCancelBlockedAtCutoff(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusInProduction,
		enums.OrderStatusQualityControl,
		enums.OrderStatusShipping,
	} {
		order := seedOrder(repo, tenantID, status)
		_, err := svc.Cancel(context.Background(), CancelInput{TenantID: tenantID, OrderID: order.ID})
		if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("cancel at %s must be blocked, got %v", status, err)
		}
		msg := pkgerrors.Message(err)
		if !strings.Contains(msg, string(enums.OrderStatusInProduction)) {
			t.Fatalf("conflict message must name the cutoff stage, got %q", msg)
		}
		if !strings.Contains(msg, fmt.Sprintf("stage %d", StagePosition(status))) {
			t.Fatalf("conflict message must carry the progression index, got %q", msg)
		}
	}
}

func TestCancelCutoffConfigurable(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestServiceWithCutoff(t, repo, enums.OrderStatusShipping)
	tenantID := uuid.New()

	// With the cutoff pushed to shipping, mid-production cancellation works.
	order := seedOrder(repo, tenantID, enums.OrderStatusInProduction)
	if _, err := svc.Cancel(context.Background(), CancelInput{TenantID: tenantID, OrderID: order.ID}); err != nil {
		t.Fatalf("cancel before shipping cutoff: %v", err)
	}
}

func TestAdvanceToCancelledRoutesThroughCancel(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()
	order := seedOrder(repo, tenantID, enums.OrderStatusPending)

	notes := "duplicate order"
	updated, err := svc.Advance(context.Background(), AdvanceInput{
		TenantID:    tenantID,
		OrderID:     order.ID,
		TargetStage: enums.OrderStatusCancelled,
		Notes:       &notes,
	})
	if err != nil {
		t.Fatalf("Advance to cancelled: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
}

func TestAssignVendorRequiresSourcingStage(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()

	order := seedOrder(repo, tenantID, enums.OrderStatusVendorSourcing)
	updated, err := svc.AssignVendor(context.Background(), AssignVendorInput{
		TenantID:     tenantID,
		OrderID:      order.ID,
		VendorID:     uuid.New(),
		QuotedPrice:  decimal.NewFromInt(90000),
		LeadTimeDays: 10,
	})
	if err != nil {
		t.Fatalf("AssignVendor: %v", err)
	}
	if !updated.HasCompleteQuote() {
		t.Fatal("assignment must populate the full quote projection")
	}

	pending := seedOrder(repo, tenantID, enums.OrderStatusPending)
	_, err = svc.AssignVendor(context.Background(), AssignVendorInput{
		TenantID:     tenantID,
		OrderID:      pending.ID,
		VendorID:     uuid.New(),
		QuotedPrice:  decimal.NewFromInt(90000),
		LeadTimeDays: 10,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("assignment outside vendor_sourcing must fail, got %v", err)
	}
}

func TestVerifyPaymentProjection(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(t, repo)
	tenantID := uuid.New()
	order := seedOrder(repo, tenantID, enums.OrderStatusAwaitingPayment)
	repo.orders[order.ID].PaidAmount = decimal.NewFromInt(30000)
	repo.orders[order.ID].PaymentStatus = enums.PaymentStatusPartial

	proj, err := svc.VerifyPayment(context.Background(), tenantID, order.ID)
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if !proj.Remaining.Equal(decimal.NewFromInt(70000)) {
		t.Fatalf("remaining: %s", proj.Remaining)
	}
	if proj.PaymentStatus != enums.PaymentStatusPartial {
		t.Fatalf("status: %s", proj.PaymentStatus)
	}
}
