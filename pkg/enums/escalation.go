package enums

import "fmt"

// EscalationLevel identifies who handles an escalated negotiation.
type EscalationLevel string

const (
	EscalationLevelTeam       EscalationLevel = "team"
	EscalationLevelSupervisor EscalationLevel = "supervisor"
	EscalationLevelManagement EscalationLevel = "management"
	EscalationLevelExecutive  EscalationLevel = "executive"
)

var validEscalationLevels = []EscalationLevel{
	EscalationLevelTeam,
	EscalationLevelSupervisor,
	EscalationLevelManagement,
	EscalationLevelExecutive,
}

// String implements fmt.Stringer.
func (e EscalationLevel) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EscalationLevel.
func (e EscalationLevel) IsValid() bool {
	for _, candidate := range validEscalationLevels {
		if candidate == e {
			return true
		}
	}
	return false
}

// EscalationSeverity grades how serious an escalation reason is.
type EscalationSeverity string

const (
	EscalationSeverityLow      EscalationSeverity = "low"
	EscalationSeverityMedium   EscalationSeverity = "medium"
	EscalationSeverityHigh     EscalationSeverity = "high"
	EscalationSeverityCritical EscalationSeverity = "critical"
)

var validEscalationSeverities = []EscalationSeverity{
	EscalationSeverityLow,
	EscalationSeverityMedium,
	EscalationSeverityHigh,
	EscalationSeverityCritical,
}

// String implements fmt.Stringer.
func (e EscalationSeverity) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EscalationSeverity.
func (e EscalationSeverity) IsValid() bool {
	for _, candidate := range validEscalationSeverities {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEscalationSeverity converts raw input into an EscalationSeverity.
func ParseEscalationSeverity(value string) (EscalationSeverity, error) {
	for _, candidate := range validEscalationSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escalation severity %q", value)
}
