package enums

import "fmt"

// NegotiationStatus tracks the lifecycle of a negotiation session.
type NegotiationStatus string

const (
	NegotiationStatusOpen      NegotiationStatus = "open"
	NegotiationStatusCountered NegotiationStatus = "countered"
	NegotiationStatusAccepted  NegotiationStatus = "accepted"
	NegotiationStatusRejected  NegotiationStatus = "rejected"
	NegotiationStatusExpired   NegotiationStatus = "expired"
	NegotiationStatusEscalated NegotiationStatus = "escalated"
)

var validNegotiationStatuses = []NegotiationStatus{
	NegotiationStatusOpen,
	NegotiationStatusCountered,
	NegotiationStatusAccepted,
	NegotiationStatusRejected,
	NegotiationStatusExpired,
	NegotiationStatusEscalated,
}

// String implements fmt.Stringer.
func (n NegotiationStatus) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NegotiationStatus.
func (n NegotiationStatus) IsValid() bool {
	for _, candidate := range validNegotiationStatuses {
		if candidate == n {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session can take no further offers.
// Escalated sessions stay live until they are accepted or rejected.
func (n NegotiationStatus) IsTerminal() bool {
	return n == NegotiationStatusAccepted || n == NegotiationStatusRejected || n == NegotiationStatusExpired
}

// ParseNegotiationStatus converts raw input into a NegotiationStatus.
func ParseNegotiationStatus(value string) (NegotiationStatus, error) {
	for _, candidate := range validNegotiationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid negotiation status %q", value)
}
