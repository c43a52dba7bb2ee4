package vendors

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
)

// Criterion weights. They sum to 1 so a perfect vendor totals 100.
const (
	weightTechnical    = 0.40
	weightCost         = 0.25
	weightQuality      = 0.20
	weightDelivery     = 0.10
	weightRelationship = 0.05

	strengthThreshold = 85.0
	weaknessThreshold = 60.0

	defaultLeadTimeDays = 14
	maxCreditScore      = 850
)

// OrderRequirements is the per-order input to scoring and matching.
type OrderRequirements struct {
	TotalAmount            decimal.Decimal
	RequiredSpecs          []string
	RequiredCertifications []string
	MaxLeadTimeDays        int
	MarketAveragePrice     decimal.Decimal
}

// VendorScore is the full breakdown for one (vendor, requirements) pair.
// Sub-scores are on a 0-100 scale before weighting; Total is the weighted
// sum, also capped at 100. Strengths and weaknesses are derived for operator
// visibility only.
type VendorScore struct {
	Technical    float64 `json:"technical"`
	Cost         float64 `json:"cost"`
	Quality      float64 `json:"quality"`
	Delivery     float64 `json:"delivery"`
	Relationship float64 `json:"relationship"`
	Total        float64 `json:"total"`

	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`

	// CostEstimated is set when no market price was available and the cost
	// sub-score fell back to a rating-derived estimate. Callers should
	// discount confidence accordingly.
	CostEstimated bool `json:"cost_estimated"`
}

// ScoreVendor is a pure function; it never touches vendor or order state.
func ScoreVendor(vendor *models.Vendor, req OrderRequirements) VendorScore {
	score := VendorScore{
		Technical:    capScore(technicalScore(vendor, req)),
		Quality:      capScore(qualityScore(vendor)),
		Delivery:     capScore(deliveryScore(vendor)),
		Relationship: capScore(relationshipScore(vendor)),
	}

	cost, estimated := costScore(vendor, req)
	score.Cost = capScore(cost)
	score.CostEstimated = estimated

	score.Total = score.Technical*weightTechnical +
		score.Cost*weightCost +
		score.Quality*weightQuality +
		score.Delivery*weightDelivery +
		score.Relationship*weightRelationship
	if score.Total > 100 {
		score.Total = 100
	}

	score.deriveNarrative()
	return score
}

// EstimatePrice projects what the vendor would likely quote for the order.
// Without a market average there is nothing to anchor on, so the order total
// scaled by the vendor's price factor stands in.
func EstimatePrice(vendor *models.Vendor, req OrderRequirements) decimal.Decimal {
	base := req.MarketAveragePrice
	if !base.IsPositive() {
		base = req.TotalAmount
	}
	return base.Mul(vendor.PriceFactor).Round(2)
}

// EstimateLeadDays projects the vendor's likely lead time for the order.
func EstimateLeadDays(vendor *models.Vendor) int {
	if vendor.AvgLeadTimeDays > 0 {
		return vendor.AvgLeadTimeDays
	}
	return defaultLeadTimeDays
}

func technicalScore(vendor *models.Vendor, req OrderRequirements) float64 {
	score := 0.0

	// Specialization and certification matches carry the most technical weight.
	if len(req.RequiredSpecs) == 0 || overlapCount(vendor.Specializations, req.RequiredSpecs) > 0 {
		score += 30
	}
	if len(req.RequiredCertifications) == 0 {
		score += 15
	} else {
		matched := overlapCount(vendor.Certifications, req.RequiredCertifications)
		score += 15 * float64(matched) / float64(len(req.RequiredCertifications))
	}

	// Capacity headroom.
	score += 20 * (1 - clamp01(vendor.CapacityUtilization()))

	// Order-count experience, saturating at 50 completed orders.
	score += 20 * clamp01(float64(vendor.CompletedOrders)/50)

	// Lead-time fit against the requested ceiling.
	switch {
	case req.MaxLeadTimeDays <= 0:
		score += 15
	case EstimateLeadDays(vendor) <= req.MaxLeadTimeDays:
		score += 15
	case EstimateLeadDays(vendor) <= req.MaxLeadTimeDays*2:
		score += 7
	}

	return score
}

// costScore compares the vendor's estimated quote against the market average.
// A quote at or below 85% of market scores 100; anything more than 10% above
// market floors at 40. The bool reports the rating-derived fallback.
func costScore(vendor *models.Vendor, req OrderRequirements) (float64, bool) {
	if !req.MarketAveragePrice.IsPositive() || !vendor.PriceFactor.IsPositive() {
		// No quotable basis; fall back to a rating-derived estimate.
		return 40 + 12*vendor.Rating, true
	}

	estimate := req.MarketAveragePrice.Mul(vendor.PriceFactor)
	ratio, _ := estimate.Div(req.MarketAveragePrice).Float64()

	switch {
	case ratio <= 0.85:
		return 100, false
	case ratio >= 1.1:
		return 40, false
	default:
		return 100 - (ratio-0.85)*(60/0.25), false
	}
}

func qualityScore(vendor *models.Vendor) float64 {
	score := 60 * clamp01(vendor.Rating/5)
	score += 20 * clamp01(vendor.RatingConsistency)
	score += 15 * clamp01(vendor.CompletionRate())
	// Experience bonus, saturating at 100 completed orders.
	score += 5 * clamp01(float64(vendor.CompletedOrders)/100)
	return score
}

func deliveryScore(vendor *models.Vendor) float64 {
	score := 60 * clamp01(vendor.OnTimeRate)

	// Shorter absolute lead times score higher, zeroing out at 30 days.
	lead := float64(EstimateLeadDays(vendor))
	score += 25 * clamp01((30-lead)/30)

	score += 15 * (1 - clamp01(vendor.CapacityUtilization()))
	return score
}

func relationshipScore(vendor *models.Vendor) float64 {
	score := 50 * clamp01(vendor.CommunicationRating/5)
	if vendor.Active {
		score += 20
	}
	disputePenalty := 5 * float64(vendor.PaymentDisputes)
	if disputePenalty < 15 {
		score += 15 - disputePenalty
	}
	score += 15 * clamp01(float64(vendor.CreditScore)/maxCreditScore)
	return score
}

func (s *VendorScore) deriveNarrative() {
	type criterion struct {
		name           string
		score          float64
		recommendation string
	}
	criteria := []criterion{
		{"technical capability", s.Technical, "verify equipment and certification fit before shortlisting"},
		{"cost effectiveness", s.Cost, "request a sharper quote or negotiate volume pricing"},
		{"quality track record", s.Quality, "require inspection checkpoints on early orders"},
		{"delivery performance", s.Delivery, "build schedule buffer into the committed lead time"},
		{"relationship score", s.Relationship, "assign an account contact to improve responsiveness"},
	}

	for _, c := range criteria {
		switch {
		case c.score >= strengthThreshold:
			s.Strengths = append(s.Strengths, c.name)
		case c.score < weaknessThreshold:
			s.Weaknesses = append(s.Weaknesses, c.name)
			s.Recommendations = append(s.Recommendations, fmt.Sprintf("%s: %s", c.name, c.recommendation))
		}
	}
}

func capScore(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func overlapCount(have []string, want []string) int {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	n := 0
	for _, w := range want {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}
