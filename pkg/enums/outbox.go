package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder              OutboxAggregateType = "order"
	AggregateNegotiationSession OutboxAggregateType = "negotiation_session"
	AggregatePaymentRecord      OutboxAggregateType = "payment_record"
	AggregateVendor             OutboxAggregateType = "vendor"
	AggregateRuleSet            OutboxAggregateType = "rule_set"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateNegotiationSession,
	AggregatePaymentRecord,
	AggregateVendor,
	AggregateRuleSet,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated          OutboxEventType = "order_created"
	EventOrderStageChanged     OutboxEventType = "order_stage_changed"
	EventOrderCancelled        OutboxEventType = "order_cancelled"
	EventVendorAssigned        OutboxEventType = "vendor_assigned"
	EventNegotiationStarted    OutboxEventType = "negotiation_started"
	EventNegotiationCountered  OutboxEventType = "negotiation_countered"
	EventNegotiationConcluded  OutboxEventType = "negotiation_concluded"
	EventNegotiationEscalated  OutboxEventType = "negotiation_escalated"
	EventNegotiationExpired    OutboxEventType = "negotiation_expired"
	EventPaymentRecorded       OutboxEventType = "payment_recorded"
	EventOrderFullyPaid        OutboxEventType = "order_fully_paid"
	EventRuleSetUpdated        OutboxEventType = "rule_set_updated"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStageChanged,
	EventOrderCancelled,
	EventVendorAssigned,
	EventNegotiationStarted,
	EventNegotiationCountered,
	EventNegotiationConcluded,
	EventNegotiationEscalated,
	EventNegotiationExpired,
	EventPaymentRecorded,
	EventOrderFullyPaid,
	EventRuleSetUpdated,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
