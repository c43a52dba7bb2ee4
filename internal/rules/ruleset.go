package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/config"
	"github.com/odalechea/procureflow-backend/pkg/enums"
)

// RuleSet is the immutable threshold configuration the engine evaluates
// against. Updates replace the whole value through the service, never
// mutate a live copy.
type RuleSet struct {
	MaxNegotiationRounds    int               `json:"max_negotiation_rounds"`
	MinDiscountPercent      float64           `json:"min_discount_percent"`
	MaxDiscountPercent      float64           `json:"max_discount_percent"`
	AutoApprovalAmount      decimal.Decimal   `json:"auto_approval_amount"`
	MinDownPaymentPercent   float64           `json:"min_down_payment_percent"`
	MaxDownPaymentPercent   float64           `json:"max_down_payment_percent"`
	MaxPaymentTermDays      int               `json:"max_payment_term_days"`
	AutoDisbursementAmount  decimal.Decimal   `json:"auto_disbursement_amount"`
	MinQualityRating        float64           `json:"min_quality_rating"`
	MinOnTimeRate           float64           `json:"min_on_time_rate"`
	MinCompletionRate       float64           `json:"min_completion_rate"`
	MaxLeadTimeVarianceDays float64           `json:"max_lead_time_variance_days"`
	CancellationCutoffStage enums.OrderStatus `json:"cancellation_cutoff_stage"`
}

// FromConfig builds the boot-time rule set from environment configuration.
func FromConfig(cfg config.RulesConfig) (RuleSet, error) {
	approval, err := decimal.NewFromString(cfg.AutoApprovalAmount)
	if err != nil {
		return RuleSet{}, fmt.Errorf("parsing auto-approval amount %q: %w", cfg.AutoApprovalAmount, err)
	}
	disbursement, err := decimal.NewFromString(cfg.AutoDisbursementAmount)
	if err != nil {
		return RuleSet{}, fmt.Errorf("parsing auto-disbursement amount %q: %w", cfg.AutoDisbursementAmount, err)
	}
	cutoff := enums.OrderStatus(cfg.CancellationCutoffStage)

	rs := RuleSet{
		MaxNegotiationRounds:    cfg.MaxNegotiationRounds,
		MinDiscountPercent:      cfg.MinDiscountPercent,
		MaxDiscountPercent:      cfg.MaxDiscountPercent,
		AutoApprovalAmount:      approval,
		MinDownPaymentPercent:   cfg.MinDownPaymentPercent,
		MaxDownPaymentPercent:   cfg.MaxDownPaymentPercent,
		MaxPaymentTermDays:      cfg.MaxPaymentTermDays,
		AutoDisbursementAmount:  disbursement,
		MinQualityRating:        cfg.MinQualityRating,
		MinOnTimeRate:           cfg.MinOnTimeRate,
		MinCompletionRate:       cfg.MinCompletionRate,
		MaxLeadTimeVarianceDays: cfg.MaxLeadTimeVarianceDays,
		CancellationCutoffStage: cutoff,
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// Validate rejects internally inconsistent threshold combinations.
func (r RuleSet) Validate() error {
	if r.MaxNegotiationRounds <= 0 {
		return fmt.Errorf("max negotiation rounds must be positive")
	}
	if r.MinDiscountPercent < 0 || r.MaxDiscountPercent > 100 {
		return fmt.Errorf("discount bounds must lie within [0,100]")
	}
	if r.MinDiscountPercent > r.MaxDiscountPercent {
		return fmt.Errorf("min discount percent exceeds max discount percent")
	}
	if r.MinDownPaymentPercent < 0 || r.MaxDownPaymentPercent > 100 {
		return fmt.Errorf("down payment bounds must lie within [0,100]")
	}
	if r.MinDownPaymentPercent > r.MaxDownPaymentPercent {
		return fmt.Errorf("min down payment percent exceeds max down payment percent")
	}
	if r.MaxPaymentTermDays <= 0 {
		return fmt.Errorf("max payment term days must be positive")
	}
	if r.AutoApprovalAmount.IsNegative() || r.AutoDisbursementAmount.IsNegative() {
		return fmt.Errorf("auto-approval and auto-disbursement amounts must be non-negative")
	}
	if !r.CancellationCutoffStage.IsValid() {
		return fmt.Errorf("invalid cancellation cutoff stage %q", r.CancellationCutoffStage)
	}
	return nil
}
