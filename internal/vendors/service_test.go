package vendors

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/internal/rules"
	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

type stubVendorsRepo struct {
	vendors  map[uuid.UUID]*models.Vendor
	active   []models.Vendor
	variance float64
}

func (s *stubVendorsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubVendorsRepo) Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	if s.vendors == nil {
		s.vendors = map[uuid.UUID]*models.Vendor{}
	}
	s.vendors[vendor.ID] = vendor
	return vendor, nil
}

func (s *stubVendorsRepo) FindByID(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	if v, ok := s.vendors[vendorID]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubVendorsRepo) ListActive(ctx context.Context, tenantID uuid.UUID) ([]models.Vendor, error) {
	return s.active, nil
}

func (s *stubVendorsRepo) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*VendorList, error) {
	return &VendorList{Vendors: s.active}, nil
}

func (s *stubVendorsRepo) LeadTimeVarianceDays(ctx context.Context, vendorID uuid.UUID) (float64, error) {
	return s.variance, nil
}

type stubOrderSource struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubOrderSource) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := s.orders[orderID]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubRules struct{}

func (stubRules) Engine() rules.Engine {
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
		CancellationCutoffStage: enums.OrderStatusInProduction,
	})
}

func newTestService(t *testing.T, repo *stubVendorsRepo, orders *stubOrderSource) Service {
	t.Helper()
	svc, err := NewService(repo, orders, stubRules{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateVendorDefaults(t *testing.T) {
	tenantID := uuid.New()
	svc := newTestService(t, &stubVendorsRepo{}, &stubOrderSource{})

	vendor, err := svc.Create(context.Background(), tenantID, CreateVendorInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if vendor.QualityTier != enums.QualityTierStandard {
		t.Fatalf("expected standard tier default, got %s", vendor.QualityTier)
	}
	if vendor.MaxConcurrentOrders != 5 {
		t.Fatalf("expected capacity default of 5, got %d", vendor.MaxConcurrentOrders)
	}
	if !vendor.Active {
		t.Fatal("new vendors start active")
	}
}

func TestCreateVendorValidation(t *testing.T) {
	svc := newTestService(t, &stubVendorsRepo{}, &stubOrderSource{})

	if _, err := svc.Create(context.Background(), uuid.New(), CreateVendorInput{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), uuid.New(), CreateVendorInput{Name: "Acme", PriceFactor: "-1"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative price factor, got %v", err)
	}
	if _, err := svc.Create(context.Background(), uuid.Nil, CreateVendorInput{Name: "Acme"}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden without tenant, got %v", err)
	}
}

func TestGetVendorTenantIsolation(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	vendor := strongVendor()
	vendor.TenantID = tenantA

	repo := &stubVendorsRepo{vendors: map[uuid.UUID]*models.Vendor{vendor.ID: vendor}}
	svc := newTestService(t, repo, &stubOrderSource{})

	if _, err := svc.Get(context.Background(), tenantA, vendor.ID); err != nil {
		t.Fatalf("same-tenant get failed: %v", err)
	}

	_, err := svc.Get(context.Background(), tenantB, vendor.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("cross-tenant access must be forbidden, not %v", err)
	}
}

func TestFindCandidatesChecksOrderTenant(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	order := &models.Order{ID: uuid.New(), TenantID: tenantA, TotalAmount: decimal.NewFromInt(50000)}

	vendor := strongVendor()
	vendor.TenantID = tenantA
	repo := &stubVendorsRepo{active: []models.Vendor{*vendor}}
	orders := &stubOrderSource{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	svc := newTestService(t, repo, orders)

	got, err := svc.FindCandidates(context.Background(), tenantA, order.ID, MatchCriteria{})
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %d", len(got))
	}

	if _, err := svc.FindCandidates(context.Background(), tenantB, order.ID, MatchCriteria{}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("cross-tenant matching must be forbidden, not %v", err)
	}
}

func TestScorecard(t *testing.T) {
	tenantID := uuid.New()
	vendor := strongVendor()
	vendor.TenantID = tenantID

	repo := &stubVendorsRepo{
		vendors:  map[uuid.UUID]*models.Vendor{vendor.ID: vendor},
		variance: 1.2,
	}
	svc := newTestService(t, repo, &stubOrderSource{})

	res, err := svc.Scorecard(context.Background(), tenantID, vendor.ID)
	if err != nil {
		t.Fatalf("Scorecard: %v", err)
	}
	if res.Status != enums.PerformanceStatusExcellent {
		t.Fatalf("expected excellent scorecard, got %s (issues %v)", res.Status, res.Issues)
	}
	if res.Metrics.LeadTimeVarianceDays != 1.2 {
		t.Fatalf("variance not threaded through: %.2f", res.Metrics.LeadTimeVarianceDays)
	}
}
