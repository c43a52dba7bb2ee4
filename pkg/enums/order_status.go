package enums

import "fmt"

// OrderStatus tracks the lifecycle of a purchase order.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusVendorSourcing    OrderStatus = "vendor_sourcing"
	OrderStatusVendorNegotiation OrderStatus = "vendor_negotiation"
	OrderStatusCustomerQuote     OrderStatus = "customer_quote"
	OrderStatusAwaitingPayment   OrderStatus = "awaiting_payment"
	OrderStatusPartialPayment    OrderStatus = "partial_payment"
	OrderStatusFullPayment       OrderStatus = "full_payment"
	OrderStatusInProduction      OrderStatus = "in_production"
	OrderStatusQualityControl    OrderStatus = "quality_control"
	OrderStatusShipping          OrderStatus = "shipping"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusVendorSourcing,
	OrderStatusVendorNegotiation,
	OrderStatusCustomerQuote,
	OrderStatusAwaitingPayment,
	OrderStatusPartialPayment,
	OrderStatusFullPayment,
	OrderStatusInProduction,
	OrderStatusQualityControl,
	OrderStatusShipping,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
