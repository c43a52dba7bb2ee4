package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/odalechea/procureflow-backend/internal/rules"
	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
	pkgerrors "github.com/odalechea/procureflow-backend/pkg/errors"
	"github.com/odalechea/procureflow-backend/pkg/pagination"
)

type rulesProvider interface {
	Engine() rules.Engine
}

// Service exposes vendor pool management, candidate matching, and the
// periodic performance scorecard.
type Service interface {
	Create(ctx context.Context, tenantID uuid.UUID, input CreateVendorInput) (*models.Vendor, error)
	Get(ctx context.Context, tenantID, vendorID uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*VendorList, error)
	FindCandidates(ctx context.Context, tenantID, orderID uuid.UUID, criteria MatchCriteria) ([]Candidate, error)
	CheckEligibility(ctx context.Context, tenantID, vendorID, orderID uuid.UUID, requiredSpecs []string) (rules.EligibilityResult, error)
	Scorecard(ctx context.Context, tenantID, vendorID uuid.UUID) (rules.PerformanceResult, error)
}

type service struct {
	repo   Repository
	orders OrderSource
	rules  rulesProvider
}

// CreateVendorInput carries the fields an operator registers a vendor with.
type CreateVendorInput struct {
	Name                string
	QualityTier         enums.QualityTier
	MaxConcurrentOrders int
	AvgLeadTimeDays     int
	PriceFactor         string
	Specializations     []string
	Certifications      []string
}

// NewService builds a vendor service with the required dependencies.
func NewService(repo Repository, orders OrderSource, rulesSvc rulesProvider) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order source required")
	}
	if rulesSvc == nil {
		return nil, fmt.Errorf("rules provider required")
	}
	return &service{repo: repo, orders: orders, rules: rulesSvc}, nil
}

func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateVendorInput) (*models.Vendor, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name required")
	}
	tier := input.QualityTier
	if tier == "" {
		tier = enums.QualityTierStandard
	}
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quality tier %q", input.QualityTier))
	}

	vendor := &models.Vendor{
		TenantID:            tenantID,
		Name:                input.Name,
		Active:              true,
		QualityTier:         tier,
		MaxConcurrentOrders: input.MaxConcurrentOrders,
		AvgLeadTimeDays:     input.AvgLeadTimeDays,
		Specializations:     input.Specializations,
		Certifications:      input.Certifications,
	}
	if vendor.MaxConcurrentOrders <= 0 {
		vendor.MaxConcurrentOrders = 5
	}
	if input.PriceFactor != "" {
		factor, err := parsePriceFactor(input.PriceFactor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price factor")
		}
		vendor.PriceFactor = factor
	}

	created, err := s.repo.Create(ctx, vendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, tenantID, vendorID uuid.UUID) (*models.Vendor, error) {
	return s.loadTenantVendor(ctx, tenantID, vendorID)
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (*VendorList, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	list, err := s.repo.List(ctx, tenantID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return list, nil
}

func (s *service) FindCandidates(ctx context.Context, tenantID, orderID uuid.UUID, criteria MatchCriteria) ([]Candidate, error) {
	order, err := s.loadTenantOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	pool, err := s.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor pool")
	}

	req := OrderRequirements{
		TotalAmount:        order.TotalAmount,
		RequiredSpecs:      criteria.RequiredSpecs,
		MaxLeadTimeDays:    criteria.MaxLeadTimeDays,
		MarketAveragePrice: order.TotalAmount,
	}
	return RankCandidates(pool, req, criteria), nil
}

func (s *service) CheckEligibility(ctx context.Context, tenantID, vendorID, orderID uuid.UUID, requiredSpecs []string) (rules.EligibilityResult, error) {
	vendor, err := s.loadTenantVendor(ctx, tenantID, vendorID)
	if err != nil {
		return rules.EligibilityResult{}, err
	}
	order, err := s.loadTenantOrder(ctx, tenantID, orderID)
	if err != nil {
		return rules.EligibilityResult{}, err
	}
	return s.rules.Engine().EvaluateVendorEligibility(vendor, order, requiredSpecs), nil
}

func (s *service) Scorecard(ctx context.Context, tenantID, vendorID uuid.UUID) (rules.PerformanceResult, error) {
	vendor, err := s.loadTenantVendor(ctx, tenantID, vendorID)
	if err != nil {
		return rules.PerformanceResult{}, err
	}

	variance, err := s.repo.LeadTimeVarianceDays(ctx, vendorID)
	if err != nil {
		return rules.PerformanceResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "measure lead time variance")
	}

	metrics := rules.PerformanceMetrics{
		OnTimeRate:           vendor.OnTimeRate,
		QualityRating:        vendor.Rating,
		LeadTimeVarianceDays: variance,
		CompletionRate:       vendor.CompletionRate(),
		SampleSize:           vendor.TotalOrders,
	}
	return s.rules.Engine().EvaluateVendorPerformance(metrics), nil
}

func (s *service) loadTenantVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*models.Vendor, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor does not belong to tenant")
	}
	return vendor, nil
}

func (s *service) loadTenantOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	order, err := s.orders.FindOrder(ctx, orderID)
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

func parsePriceFactor(raw string) (decimal.Decimal, error) {
	factor, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !factor.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price factor must be positive")
	}
	return factor, nil
}
