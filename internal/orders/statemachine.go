package orders

import (
	"github.com/odalechea/procureflow-backend/pkg/enums"
)

// stageSuccessors defines the only legal forward transitions. An order paid
// in full in a single payment may skip the partial_payment stage; everything
// else advances one stage at a time. Cancellation is handled separately.
var stageSuccessors = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:           {enums.OrderStatusVendorSourcing},
	enums.OrderStatusVendorSourcing:    {enums.OrderStatusVendorNegotiation},
	enums.OrderStatusVendorNegotiation: {enums.OrderStatusCustomerQuote},
	enums.OrderStatusCustomerQuote:     {enums.OrderStatusAwaitingPayment},
	enums.OrderStatusAwaitingPayment:   {enums.OrderStatusPartialPayment, enums.OrderStatusFullPayment},
	enums.OrderStatusPartialPayment:    {enums.OrderStatusFullPayment},
	enums.OrderStatusFullPayment:       {enums.OrderStatusInProduction},
	enums.OrderStatusInProduction:      {enums.OrderStatusQualityControl},
	enums.OrderStatusQualityControl:    {enums.OrderStatusShipping},
	enums.OrderStatusShipping:          {enums.OrderStatusCompleted},
}

// stagePositions orders the normal progression for cancellation cutoff
// comparisons.
var stagePositions = map[enums.OrderStatus]int{
	enums.OrderStatusPending:           0,
	enums.OrderStatusVendorSourcing:    1,
	enums.OrderStatusVendorNegotiation: 2,
	enums.OrderStatusCustomerQuote:     3,
	enums.OrderStatusAwaitingPayment:   4,
	enums.OrderStatusPartialPayment:    5,
	enums.OrderStatusFullPayment:       6,
	enums.OrderStatusInProduction:      7,
	enums.OrderStatusQualityControl:    8,
	enums.OrderStatusShipping:          9,
	enums.OrderStatusCompleted:         10,
}

// CanTransition reports whether target is a defined successor of current.
func CanTransition(current, target enums.OrderStatus) bool {
	for _, next := range stageSuccessors[current] {
		if next == target {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order at the given stage may still be
// cancelled. The cutoff stage is the first stage at which cancellation is no
// longer allowed; production consuming irreversible resources is the usual
// boundary.
func Cancellable(current, cutoff enums.OrderStatus) bool {
	if current.IsTerminal() {
		return false
	}
	pos, ok := stagePositions[current]
	if !ok {
		return false
	}
	cutoffPos, ok := stagePositions[cutoff]
	if !ok {
		return false
	}
	return pos < cutoffPos
}

// StagePosition exposes the progression index; -1 for cancelled or unknown.
func StagePosition(status enums.OrderStatus) int {
	pos, ok := stagePositions[status]
	if !ok {
		return -1
	}
	return pos
}
