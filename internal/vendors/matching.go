package vendors

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
)

// MatchCriteria holds the hard filters applied before any scoring. Vendors
// failing one of these are excluded outright, not down-ranked.
type MatchCriteria struct {
	MinQualityTier  *enums.QualityTier
	MaxLeadTimeDays int
	RequiredSpecs   []string
	Limit           int
}

// Candidate is a transient pairing of a vendor with its score and estimates
// for one order's requirements. Never persisted; recomputed per request.
type Candidate struct {
	Vendor            models.Vendor   `json:"vendor"`
	Score             VendorScore     `json:"score"`
	EstimatedPrice    decimal.Decimal `json:"estimated_price"`
	EstimatedLeadDays int             `json:"estimated_lead_days"`
}

// RankCandidates filters the vendor pool by the hard criteria, scores the
// survivors, and sorts descending by total score. Ties break toward the
// lower estimated price, then the shorter lead time. Read-only throughout.
func RankCandidates(pool []models.Vendor, req OrderRequirements, criteria MatchCriteria) []Candidate {
	candidates := make([]Candidate, 0, len(pool))

	for i := range pool {
		vendor := pool[i]
		if !passesHardFilters(&vendor, req, criteria) {
			continue
		}
		candidates = append(candidates, Candidate{
			Vendor:            vendor,
			Score:             ScoreVendor(&vendor, req),
			EstimatedPrice:    EstimatePrice(&vendor, req),
			EstimatedLeadDays: EstimateLeadDays(&vendor),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		if !a.EstimatedPrice.Equal(b.EstimatedPrice) {
			return a.EstimatedPrice.LessThan(b.EstimatedPrice)
		}
		return a.EstimatedLeadDays < b.EstimatedLeadDays
	})

	if criteria.Limit > 0 && len(candidates) > criteria.Limit {
		candidates = candidates[:criteria.Limit]
	}
	return candidates
}

func passesHardFilters(vendor *models.Vendor, req OrderRequirements, criteria MatchCriteria) bool {
	if !vendor.Active {
		return false
	}
	if criteria.MinQualityTier != nil && vendor.QualityTier.Rank() < criteria.MinQualityTier.Rank() {
		return false
	}
	if criteria.MaxLeadTimeDays > 0 && EstimateLeadDays(vendor) > criteria.MaxLeadTimeDays {
		return false
	}
	specs := criteria.RequiredSpecs
	if len(specs) == 0 {
		specs = req.RequiredSpecs
	}
	if len(specs) > 0 && overlapCount(vendor.Specializations, specs) == 0 {
		return false
	}
	return true
}
