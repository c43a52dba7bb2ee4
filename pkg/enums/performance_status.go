package enums

// PerformanceStatus labels the outcome of a periodic vendor scorecard.
type PerformanceStatus string

const (
	PerformanceStatusExcellent        PerformanceStatus = "excellent"
	PerformanceStatusGood             PerformanceStatus = "good"
	PerformanceStatusNeedsImprovement PerformanceStatus = "needs_improvement"
	PerformanceStatusInsufficientData PerformanceStatus = "insufficient_data"
)

var validPerformanceStatuses = []PerformanceStatus{
	PerformanceStatusExcellent,
	PerformanceStatusGood,
	PerformanceStatusNeedsImprovement,
	PerformanceStatusInsufficientData,
}

// String implements fmt.Stringer.
func (p PerformanceStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PerformanceStatus.
func (p PerformanceStatus) IsValid() bool {
	for _, candidate := range validPerformanceStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}
