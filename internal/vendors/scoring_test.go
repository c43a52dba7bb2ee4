package vendors

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odalechea/procureflow-backend/pkg/db/models"
	"github.com/odalechea/procureflow-backend/pkg/enums"
)

func strongVendor() *models.Vendor {
	return &models.Vendor{
		ID:                  uuid.New(),
		Name:                "Benchmark Manufacturing",
		Active:              true,
		QualityTier:         enums.QualityTierPremium,
		Rating:              4.8,
		RatingConsistency:   0.95,
		CommunicationRating: 4.7,
		OnTimeRate:          0.97,
		CompletedOrders:     80,
		TotalOrders:         82,
		ActiveOrders:        1,
		MaxConcurrentOrders: 8,
		AvgLeadTimeDays:     6,
		PriceFactor:         decimal.NewFromFloat(0.9),
		CreditScore:         780,
		Specializations:     []string{"cnc_machining", "sheet_metal"},
		Certifications:      []string{"iso_9001"},
	}
}

func baseRequirements() OrderRequirements {
	return OrderRequirements{
		TotalAmount:        decimal.NewFromInt(50000),
		MarketAveragePrice: decimal.NewFromInt(50000),
	}
}

func TestScoreVendorWeightedTotal(t *testing.T) {
	score := ScoreVendor(strongVendor(), baseRequirements())

	want := score.Technical*weightTechnical +
		score.Cost*weightCost +
		score.Quality*weightQuality +
		score.Delivery*weightDelivery +
		score.Relationship*weightRelationship
	if diff := score.Total - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("total %.3f does not match weighted sum %.3f", score.Total, want)
	}
	if score.Total > 100 {
		t.Fatalf("total %.1f exceeds 100", score.Total)
	}
	if score.CostEstimated {
		t.Fatal("market price was provided, cost must not be estimated")
	}
}

func TestScoreVendorSubScoresCapped(t *testing.T) {
	vendor := strongVendor()
	vendor.CompletedOrders = 10000
	vendor.CreditScore = 2000

	score := ScoreVendor(vendor, baseRequirements())
	for name, sub := range map[string]float64{
		"technical":    score.Technical,
		"cost":         score.Cost,
		"quality":      score.Quality,
		"delivery":     score.Delivery,
		"relationship": score.Relationship,
	} {
		if sub > 100 || sub < 0 {
			t.Fatalf("%s sub-score %.1f out of [0,100]", name, sub)
		}
	}
}

func TestScoreVendorCostFallbackFlagged(t *testing.T) {
	req := baseRequirements()
	req.MarketAveragePrice = decimal.Zero

	score := ScoreVendor(strongVendor(), req)
	if !score.CostEstimated {
		t.Fatal("expected rating-derived cost fallback to be flagged")
	}
}

func TestScoreVendorNarrative(t *testing.T) {
	weak := &models.Vendor{
		Active:              true,
		Rating:              2.0,
		OnTimeRate:          0.5,
		AvgLeadTimeDays:     28,
		MaxConcurrentOrders: 2,
		ActiveOrders:        2,
		PriceFactor:         decimal.NewFromFloat(1.3),
	}

	score := ScoreVendor(weak, baseRequirements())
	if len(score.Weaknesses) == 0 {
		t.Fatal("expected weaknesses for a weak vendor")
	}
	if len(score.Recommendations) != len(score.Weaknesses) {
		t.Fatalf("each weakness needs a recommendation: %d vs %d", len(score.Recommendations), len(score.Weaknesses))
	}

	score = ScoreVendor(strongVendor(), baseRequirements())
	if len(score.Strengths) == 0 {
		t.Fatal("expected strengths for a strong vendor")
	}
}

func TestRankCandidatesHardFilters(t *testing.T) {
	inactive := strongVendor()
	inactive.Active = false

	slow := strongVendor()
	slow.AvgLeadTimeDays = 40

	wrongTier := strongVendor()
	wrongTier.QualityTier = enums.QualityTierStandard

	noSpec := strongVendor()
	noSpec.Specializations = []string{"injection_molding"}

	keeper := strongVendor()

	premium := enums.QualityTierPremium
	got := RankCandidates(
		[]models.Vendor{*inactive, *slow, *wrongTier, *noSpec, *keeper},
		baseRequirements(),
		MatchCriteria{
			MinQualityTier:  &premium,
			MaxLeadTimeDays: 10,
			RequiredSpecs:   []string{"cnc_machining"},
		},
	)
	if len(got) != 1 {
		t.Fatalf("expected one survivor, got %d", len(got))
	}
	if got[0].Vendor.ID != keeper.ID {
		t.Fatal("wrong vendor survived the hard filters")
	}
}

func TestRankCandidatesOrdering(t *testing.T) {
	cheap := strongVendor()
	cheap.PriceFactor = decimal.NewFromFloat(0.84)

	pricey := strongVendor()
	pricey.PriceFactor = decimal.NewFromFloat(1.2)
	pricey.Rating = 3.0
	pricey.OnTimeRate = 0.7

	got := RankCandidates([]models.Vendor{*pricey, *cheap}, baseRequirements(), MatchCriteria{})
	if len(got) != 2 {
		t.Fatalf("expected two candidates, got %d", len(got))
	}
	if got[0].Vendor.ID != cheap.ID {
		t.Fatal("expected the stronger, cheaper vendor first")
	}
	if got[0].Score.Total < got[1].Score.Total {
		t.Fatal("candidates not sorted by descending score")
	}
}

func TestRankCandidatesPriceTieBreak(t *testing.T) {
	a := strongVendor()
	b := strongVendor()
	// Identical profiles score identically; the cheaper estimate wins.
	a.PriceFactor = decimal.NewFromFloat(0.84)
	b.PriceFactor = decimal.NewFromFloat(0.80)

	got := RankCandidates([]models.Vendor{*a, *b}, baseRequirements(), MatchCriteria{})
	if len(got) != 2 {
		t.Fatalf("expected two candidates, got %d", len(got))
	}
	if got[0].Vendor.ID != b.ID {
		t.Fatal("tie should break toward the lower estimated price")
	}
}

func TestRankCandidatesLimit(t *testing.T) {
	pool := []models.Vendor{*strongVendor(), *strongVendor(), *strongVendor()}
	got := RankCandidates(pool, baseRequirements(), MatchCriteria{Limit: 2})
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
}
