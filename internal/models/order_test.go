package models

import "testing"

func TestCanTransitionForwardPath(t *testing.T) {
	path := []string{OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionRejectsBackwards(t *testing.T) {
	tests := []struct{ from, to string }{
		{OrderDelivered, OrderPending},
		{OrderConfirmed, OrderPending},
		{OrderReady, OrderPreparing},
		{OrderCancelled, OrderConfirmed},
		{OrderDelivered, OrderCancelled},
	}
	for _, tc := range tests {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestCanTransitionRejectsSameStatus(t *testing.T) {
	for _, status := range []string{OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled} {
		if CanTransition(status, status) {
			t.Fatalf("expected %s -> %s to be rejected", status, status)
		}
	}
}

func TestCanTransitionRejectsSkippingStages(t *testing.T) {
	if CanTransition(OrderPending, OrderDelivered) {
		t.Fatal("expected pending -> delivered to be rejected")
	}
	if CanTransition(OrderPending, OrderReady) {
		t.Fatal("expected pending -> ready to be rejected")
	}
}

func TestCancellableUntilReady(t *testing.T) {
	for _, from := range []string{OrderPending, OrderConfirmed, OrderPreparing} {
		if !CanTransition(from, OrderCancelled) {
			t.Fatalf("expected %s -> cancelled to be allowed", from)
		}
	}
	if CanTransition(OrderReady, OrderCancelled) {
		t.Fatal("expected ready -> cancelled to be rejected")
	}
}

func TestTerminalStatus(t *testing.T) {
	for _, status := range []string{OrderDelivered, OrderCancelled} {
		if !TerminalStatus(status) {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	for _, status := range []string{OrderPending, OrderConfirmed, OrderPreparing, OrderReady} {
		if TerminalStatus(status) {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}
	if TerminalStatus("bogus") {
		t.Fatal("unknown status must not be terminal")
	}
}

func TestValidOrderStatus(t *testing.T) {
	for _, status := range []string{OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled} {
		if !ValidOrderStatus(status) {
			t.Fatalf("expected %s to be a valid status", status)
		}
	}
	if ValidOrderStatus("shipped") {
		t.Fatal("shipped is not a valid status")
	}
}

func TestValidPaymentMethod(t *testing.T) {
	for _, method := range []string{MethodCard, MethodUPI, MethodCOD, MethodWallet} {
		if !ValidPaymentMethod(method) {
			t.Fatalf("expected %s to be a valid method", method)
		}
	}
	if ValidPaymentMethod("cheque") {
		t.Fatal("cheque is not a valid method")
	}
}
