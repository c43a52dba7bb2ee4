package orders

import (
	"testing"

	"github.com/odalechea/procureflow-backend/pkg/enums"
)

func TestCanTransitionHappyPath(t *testing.T) {
	path := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusVendorSourcing,
		enums.OrderStatusVendorNegotiation,
		enums.OrderStatusCustomerQuote,
		enums.OrderStatusAwaitingPayment,
		enums.OrderStatusPartialPayment,
		enums.OrderStatusFullPayment,
		enums.OrderStatusInProduction,
		enums.OrderStatusQualityControl,
		enums.OrderStatusShipping,
		enums.OrderStatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("%s -> %s must be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionSkipsAndReversals(t *testing.T) {
	// One full payment may settle the order without a partial stage.
	if !CanTransition(enums.OrderStatusAwaitingPayment, enums.OrderStatusFullPayment) {
		t.Fatal("awaiting_payment -> full_payment must be allowed")
	}
	if CanTransition(enums.OrderStatusPending, enums.OrderStatusCustomerQuote) {
		t.Fatal("stage skipping must be rejected")
	}
	if CanTransition(enums.OrderStatusShipping, enums.OrderStatusInProduction) {
		t.Fatal("backward transitions must be rejected")
	}
	if CanTransition(enums.OrderStatusCompleted, enums.OrderStatusShipping) {
		t.Fatal("completed has no successors")
	}
	if CanTransition(enums.OrderStatusCancelled, enums.OrderStatusPending) {
		t.Fatal("cancelled has no successors")
	}
}

func TestCancellableRespectsCutoff(t *testing.T) {
	cutoff := enums.OrderStatusInProduction

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusCustomerQuote,
		enums.OrderStatusFullPayment,
	} {
		if !Cancellable(status, cutoff) {
			t.Fatalf("%s must be cancellable before cutoff", status)
		}
	}
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusInProduction,
		enums.OrderStatusShipping,
		enums.OrderStatusCompleted,
		enums.OrderStatusCancelled,
	} {
		if Cancellable(status, cutoff) {
			t.Fatalf("%s must not be cancellable", status)
		}
	}
}

func TestStagePosition(t *testing.T) {
	if StagePosition(enums.OrderStatusPending) != 0 {
		t.Fatal("pending is the first stage")
	}
	if StagePosition(enums.OrderStatusCompleted) != 10 {
		t.Fatal("completed is the last stage")
	}
	if StagePosition(enums.OrderStatusCancelled) != -1 {
		t.Fatal("cancelled has no progression index")
	}
}
