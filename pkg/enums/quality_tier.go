package enums

import "fmt"

// QualityTier buckets vendors by the quality bracket they are certified for.
type QualityTier string

const (
	QualityTierStandard QualityTier = "standard"
	QualityTierPremium  QualityTier = "premium"
	QualityTierElite    QualityTier = "elite"
)

var validQualityTiers = []QualityTier{
	QualityTierStandard,
	QualityTierPremium,
	QualityTierElite,
}

// String implements fmt.Stringer.
func (q QualityTier) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QualityTier.
func (q QualityTier) IsValid() bool {
	for _, candidate := range validQualityTiers {
		if candidate == q {
			return true
		}
	}
	return false
}

// Rank orders tiers so that floor checks can compare them. Higher is better.
func (q QualityTier) Rank() int {
	switch q {
	case QualityTierElite:
		return 3
	case QualityTierPremium:
		return 2
	case QualityTierStandard:
		return 1
	default:
		return 0
	}
}

// ParseQualityTier converts raw input into a QualityTier.
func ParseQualityTier(value string) (QualityTier, error) {
	for _, candidate := range validQualityTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quality tier %q", value)
}
