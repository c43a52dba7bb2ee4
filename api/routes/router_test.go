package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/internal/negotiation"
	"github.com/odalechea/procureflow-backend/internal/orders"
	"github.com/odalechea/procureflow-backend/internal/payments"
	"github.com/odalechea/procureflow-backend/internal/rules"
	"github.com/odalechea/procureflow-backend/internal/vendors"
	pkgAuth "github.com/odalechea/procureflow-backend/pkg/auth"
	"github.com/odalechea/procureflow-backend/pkg/config"
	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	"github.com/odalechea/procureflow-backend/pkg/logger"
	"github.com/odalechea/procureflow-backend/pkg/outbox"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct {
	create func(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error)
	list   func(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error)
}

func (s stubOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	panic("unimplemented")
}

func (s stubOrdersService) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrdersService) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	if s.list != nil {
		return s.list(ctx, tenantID, params, filters)
	}
	return &orders.OrderList{}, nil
}

func (s stubOrdersService) Advance(ctx context.Context, input orders.AdvanceInput) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrdersService) Cancel(ctx context.Context, input orders.CancelInput) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrdersService) AssignVendor(ctx context.Context, input orders.AssignVendorInput) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrdersService) VerifyPayment(ctx context.Context, tenantID, orderID uuid.UUID) (*orders.PaymentProjection, error) {
	panic("unimplemented")
}

type stubNegotiationService struct{}

func (stubNegotiationService) StartNegotiation(ctx context.Context, input negotiation.StartInput) (*models.NegotiationSession, error) {
	panic("unimplemented")
}

func (stubNegotiationService) ProposeTerms(ctx context.Context, input negotiation.ProposeInput) (*models.NegotiationSession, error) {
	panic("unimplemented")
}

func (stubNegotiationService) ConcludeNegotiation(ctx context.Context, input negotiation.ConcludeInput) (*models.NegotiationSession, error) {
	panic("unimplemented")
}

func (stubNegotiationService) RejectNegotiation(ctx context.Context, input negotiation.RejectInput) (*models.NegotiationSession, error) {
	panic("unimplemented")
}

func (stubNegotiationService) ListForOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.NegotiationSession, error) {
	return nil, nil
}

func (stubNegotiationService) SetNegotiationDeadline(ctx context.Context, tenantID, sessionID uuid.UUID, daysFromNow int) (*negotiation.DeadlineResult, error) {
	panic("unimplemented")
}

func (stubNegotiationService) EscalateNegotiation(ctx context.Context, input negotiation.EscalateInput) (*models.NegotiationSession, error) {
	panic("unimplemented")
}

func (stubNegotiationService) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	return 0, nil
}

type stubVendorsService struct{}

func (stubVendorsService) Create(ctx context.Context, tenantID uuid.UUID, input vendors.CreateVendorInput) (*models.Vendor, error) {
	panic("unimplemented")
}

func (stubVendorsService) Get(ctx context.Context, tenantID, vendorID uuid.UUID) (*models.Vendor, error) {
	panic("unimplemented")
}

func (stubVendorsService) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*vendors.VendorList, error) {
	return &vendors.VendorList{}, nil
}

func (stubVendorsService) FindCandidates(ctx context.Context, tenantID, orderID uuid.UUID, criteria vendors.MatchCriteria) ([]vendors.Candidate, error) {
	return nil, nil
}

func (stubVendorsService) CheckEligibility(ctx context.Context, tenantID, vendorID, orderID uuid.UUID, requiredSpecs []string) (rules.EligibilityResult, error) {
	panic("unimplemented")
}

func (stubVendorsService) Scorecard(ctx context.Context, tenantID, vendorID uuid.UUID) (rules.PerformanceResult, error) {
	panic("unimplemented")
}

type stubPaymentsService struct{}

func (stubPaymentsService) RecordPayment(ctx context.Context, input payments.RecordPaymentInput) (*payments.PaymentProjection, error) {
	panic("unimplemented")
}

func (stubPaymentsService) History(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.PaymentRecord, error) {
	return nil, nil
}

func (stubPaymentsService) CalculateDownPayment(total decimal.Decimal, percentage float64) (payments.DownPaymentSplit, error) {
	return payments.DownPaymentSplit{}, nil
}

type stubRulesService struct{}

func testRuleSet() rules.RuleSet {
	return rules.RuleSet{
		MaxNegotiationRounds:    5,
		MinDiscountPercent:      5,
		MaxDiscountPercent:      25,
		AutoApprovalAmount:      decimal.NewFromInt(10000),
		MinDownPaymentPercent:   20,
		MaxDownPaymentPercent:   50,
		MaxPaymentTermDays:      90,
		AutoDisbursementAmount:  decimal.NewFromInt(5000),
		MinQualityRating:        3.5,
		MinOnTimeRate:           0.8,
		MinCompletionRate:       0.9,
		MaxLeadTimeVarianceDays: 7,
		CancellationCutoffStage: enums.OrderStatusInProduction,
	}
}

func (stubRulesService) Engine() rules.Engine {
	return rules.NewEngine(testRuleSet())
}

func (stubRulesService) Current() rules.RuleSet {
	return testRuleSet()
}

func (stubRulesService) Update(ctx context.Context, next rules.RuleSet, actor outbox.ActorRef) (rules.RuleSet, error) {
	return next, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, svcs Services) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, nil, svcs)
}

func testServices() Services {
	return Services{
		Orders:       stubOrdersService{},
		Negotiations: stubNegotiationService{},
		Vendors:      stubVendorsService{},
		Payments:     stubPaymentsService{},
		Rules:        stubRulesService{},
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), testServices())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), testServices())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAPIGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, testServices())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order list got %d", resp.Code)
	}
}

func TestAdminRulesRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, testServices())

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/rules", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleOperator))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/rules", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestOrderCreateRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, testServices())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestOrderCreateScopesToTokenTenant(t *testing.T) {
	cfg := testConfig()
	var captured orders.CreateOrderInput
	svcs := testServices()
	svcs.Orders = stubOrdersService{
		create: func(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
			captured = input
			return &models.Order{ID: uuid.New(), TenantID: input.TenantID, Status: enums.OrderStatusPending}, nil
		},
	}
	router := newTestRouter(cfg, svcs)

	body := `{"customer_id":"` + uuid.NewString() + `","total_amount":"1250.00","currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for order create got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.TenantID == uuid.Nil {
		t.Fatalf("expected tenant id from token to reach the service")
	}
}
