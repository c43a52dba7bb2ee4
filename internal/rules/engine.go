package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
)

// Engine evaluates domain actions against one immutable rule set snapshot.
// It is a value type; callers obtain a fresh engine from the service so that
// an admin update mid-request never changes thresholds under them.
type Engine struct {
	rules RuleSet
}

// NewEngine wraps a rule set snapshot.
func NewEngine(rules RuleSet) Engine {
	return Engine{rules: rules}
}

// Rules returns the snapshot this engine evaluates against.
func (e Engine) Rules() RuleSet {
	return e.rules
}

// EligibilityResult reports whether a vendor may take an order. Reasons are
// hard blocks; warnings are advisory only.
type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
	Warnings []string `json:"warnings"`
	Score    float64  `json:"score"`
}

// EvaluateVendorEligibility combines the quality floor, capacity headroom,
// tier experience minimums, order-value compatibility, and specialization
// overlap into a single pass/fail verdict with a coarse fitness score.
func (e Engine) EvaluateVendorEligibility(vendor *models.Vendor, order *models.Order, requiredSpecializations []string) EligibilityResult {
	res := EligibilityResult{Eligible: true, Score: 100}

	if !vendor.Active {
		res.Eligible = false
		res.Reasons = append(res.Reasons, "vendor is inactive")
	}

	if vendor.Rating < e.rules.MinQualityRating {
		res.Eligible = false
		res.Reasons = append(res.Reasons, fmt.Sprintf("quality rating %.2f below minimum %.2f", vendor.Rating, e.rules.MinQualityRating))
		res.Score -= 30
	}

	if vendor.ActiveOrders >= vendor.MaxConcurrentOrders {
		res.Eligible = false
		res.Reasons = append(res.Reasons, fmt.Sprintf("at concurrent order capacity (%d/%d)", vendor.ActiveOrders, vendor.MaxConcurrentOrders))
		res.Score -= 25
	} else if vendor.CapacityUtilization() >= 0.8 {
		res.Warnings = append(res.Warnings, "vendor is near concurrent order capacity")
		res.Score -= 10
	}

	if min := tierCompletedOrderMinimum(vendor.QualityTier); vendor.CompletedOrders < min {
		res.Eligible = false
		res.Reasons = append(res.Reasons, fmt.Sprintf("%s tier requires at least %d completed orders, vendor has %d", vendor.QualityTier, min, vendor.CompletedOrders))
		res.Score -= 20
	}

	if vendor.TotalOrders > 0 && vendor.CompletionRate() < e.rules.MinCompletionRate {
		res.Warnings = append(res.Warnings, fmt.Sprintf("completion rate %.2f below expected %.2f", vendor.CompletionRate(), e.rules.MinCompletionRate))
		res.Score -= 10
	}

	if floor := tierOrderValueFloor(order.TotalAmount); vendor.QualityTier.Rank() < floor.Rank() {
		res.Warnings = append(res.Warnings, fmt.Sprintf("order value suggests %s tier, vendor is %s", floor, vendor.QualityTier))
		res.Score -= 5
	}

	if len(requiredSpecializations) > 0 && !hasSpecializationOverlap(vendor.Specializations, requiredSpecializations) {
		res.Eligible = false
		res.Reasons = append(res.Reasons, "no overlap with required specializations")
		res.Score -= 20
	}

	if res.Score < 0 {
		res.Score = 0
	}
	return res
}

// NegotiationTerms is the proposed action ValidateNegotiationTerms checks.
type NegotiationTerms struct {
	Round         int
	OriginalPrice decimal.Decimal
	ProposedPrice decimal.Decimal
}

// TermsResult distinguishes hard violations from advisory warnings and
// auto-corrective adjustments; callers branch on exactly this split.
type TermsResult struct {
	Valid       bool     `json:"valid"`
	Violations  []string `json:"violations"`
	Warnings    []string `json:"warnings"`
	Adjustments []string `json:"adjustments"`
}

// ValidateNegotiationTerms enforces the round ceiling and discount bounds.
// A discount below the minimum is deliberately a warning, not a block.
func (e Engine) ValidateNegotiationTerms(terms NegotiationTerms) TermsResult {
	res := TermsResult{Valid: true}

	if terms.Round >= e.rules.MaxNegotiationRounds {
		res.Valid = false
		res.Violations = append(res.Violations, fmt.Sprintf("negotiation round limit of %d reached", e.rules.MaxNegotiationRounds))
	}

	if terms.OriginalPrice.IsPositive() {
		discount := terms.OriginalPrice.Sub(terms.ProposedPrice).
			Div(terms.OriginalPrice).
			Mul(decimal.NewFromInt(100))
		discountPct, _ := discount.Float64()

		if discountPct > e.rules.MaxDiscountPercent {
			res.Valid = false
			res.Violations = append(res.Violations, fmt.Sprintf("discount %.1f%% exceeds maximum %.1f%%", discountPct, e.rules.MaxDiscountPercent))
		} else if discountPct > 0 && discountPct < e.rules.MinDiscountPercent {
			res.Warnings = append(res.Warnings, fmt.Sprintf("discount %.1f%% below minimum %.1f%%", discountPct, e.rules.MinDiscountPercent))
		}
	}

	if terms.ProposedPrice.LessThanOrEqual(e.rules.AutoApprovalAmount) {
		res.Adjustments = append(res.Adjustments, "amount qualifies for auto-approval fast track")
	}

	return res
}

// PaymentTerms is the proposed schedule ValidatePaymentTerms checks.
type PaymentTerms struct {
	Amount             decimal.Decimal
	DownPaymentPercent float64
	TermDays           int
}

// PaymentTermsResult mirrors TermsResult without the warning tier.
type PaymentTermsResult struct {
	Valid              bool     `json:"valid"`
	Violations         []string `json:"violations"`
	Adjustments        []string `json:"adjustments"`
	DownPaymentPercent float64  `json:"down_payment_percent"`
}

// ValidatePaymentTerms clamps the down payment into the configured band as
// an adjustment, and hard-fails terms longer than the maximum allowed days.
func (e Engine) ValidatePaymentTerms(terms PaymentTerms) PaymentTermsResult {
	res := PaymentTermsResult{Valid: true, DownPaymentPercent: terms.DownPaymentPercent}

	if terms.DownPaymentPercent < e.rules.MinDownPaymentPercent {
		res.DownPaymentPercent = e.rules.MinDownPaymentPercent
		res.Adjustments = append(res.Adjustments, fmt.Sprintf("down payment raised to minimum %.1f%%", e.rules.MinDownPaymentPercent))
	} else if terms.DownPaymentPercent > e.rules.MaxDownPaymentPercent {
		res.DownPaymentPercent = e.rules.MaxDownPaymentPercent
		res.Adjustments = append(res.Adjustments, fmt.Sprintf("down payment lowered to maximum %.1f%%", e.rules.MaxDownPaymentPercent))
	}

	if terms.TermDays > e.rules.MaxPaymentTermDays {
		res.Valid = false
		res.Violations = append(res.Violations, fmt.Sprintf("payment term of %d days exceeds maximum %d", terms.TermDays, e.rules.MaxPaymentTermDays))
	}

	if terms.Amount.LessThanOrEqual(e.rules.AutoDisbursementAmount) {
		res.Adjustments = append(res.Adjustments, "amount qualifies for auto-disbursement")
	}

	return res
}

// PerformanceMetrics are the measured inputs to a vendor scorecard.
type PerformanceMetrics struct {
	OnTimeRate           float64 `json:"on_time_rate"`
	QualityRating        float64 `json:"quality_rating"`
	LeadTimeVarianceDays float64 `json:"lead_time_variance_days"`
	CompletionRate       float64 `json:"completion_rate"`
	SampleSize           int     `json:"sample_size"`
}

// PerformanceResult is the periodic scorecard verdict.
type PerformanceResult struct {
	Status  enums.PerformanceStatus `json:"status"`
	Score   float64                 `json:"score"`
	Issues  []string                `json:"issues"`
	Metrics PerformanceMetrics      `json:"metrics"`
}

// EvaluateVendorPerformance compares each measured metric against its
// configured minimum and aggregates a 0-100 score. Fewer than three recent
// orders is not enough signal to grade on.
func (e Engine) EvaluateVendorPerformance(metrics PerformanceMetrics) PerformanceResult {
	res := PerformanceResult{Metrics: metrics}

	if metrics.SampleSize < 3 {
		res.Status = enums.PerformanceStatusInsufficientData
		return res
	}

	score := 100.0

	if metrics.OnTimeRate < e.rules.MinOnTimeRate {
		res.Issues = append(res.Issues, fmt.Sprintf("on-time rate %.2f below minimum %.2f", metrics.OnTimeRate, e.rules.MinOnTimeRate))
		score -= 30 * (e.rules.MinOnTimeRate - metrics.OnTimeRate) / e.rules.MinOnTimeRate
		score -= 10
	}
	if metrics.QualityRating < e.rules.MinQualityRating {
		res.Issues = append(res.Issues, fmt.Sprintf("quality rating %.2f below minimum %.2f", metrics.QualityRating, e.rules.MinQualityRating))
		score -= 20
	}
	if metrics.LeadTimeVarianceDays > e.rules.MaxLeadTimeVarianceDays {
		res.Issues = append(res.Issues, fmt.Sprintf("lead time variance %.1f days exceeds maximum %.1f", metrics.LeadTimeVarianceDays, e.rules.MaxLeadTimeVarianceDays))
		score -= 15
	}
	if metrics.CompletionRate < e.rules.MinCompletionRate {
		res.Issues = append(res.Issues, fmt.Sprintf("completion rate %.2f below minimum %.2f", metrics.CompletionRate, e.rules.MinCompletionRate))
		score -= 20
	}

	if score < 0 {
		score = 0
	}
	res.Score = score

	switch {
	case score >= 90:
		res.Status = enums.PerformanceStatusExcellent
	case score >= 70:
		res.Status = enums.PerformanceStatusGood
	default:
		res.Status = enums.PerformanceStatusNeedsImprovement
	}
	return res
}

func tierCompletedOrderMinimum(tier enums.QualityTier) int {
	switch tier {
	case enums.QualityTierElite:
		return 50
	case enums.QualityTierPremium:
		return 20
	default:
		return 0
	}
}

// tierOrderValueFloor suggests the minimum tier for an order's value band.
func tierOrderValueFloor(total decimal.Decimal) enums.QualityTier {
	switch {
	case total.GreaterThanOrEqual(decimal.NewFromInt(100000)):
		return enums.QualityTierElite
	case total.GreaterThanOrEqual(decimal.NewFromInt(25000)):
		return enums.QualityTierPremium
	default:
		return enums.QualityTierStandard
	}
}

func hasSpecializationOverlap(vendorSpecs []string, required []string) bool {
	have := make(map[string]struct{}, len(vendorSpecs))
	for _, s := range vendorSpecs {
		have[s] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; ok {
			return true
		}
	}
	return false
}
