package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusRefunded, true},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusPaid, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestOrderStatusCanAdvanceTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusPending, OrderStatusRefunded, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusShipped, OrderStatusPaid, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusShipped, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded} {
		if !status.IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusShipped} {
		if status.IsTerminal() {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if got, err := ParseOrderStatus(" paid "); err != nil || got != OrderStatusPaid {
		t.Fatalf("unexpected parse result %q %v", got, err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if got, err := ParsePaymentMethod("pix"); err != nil || got != PaymentMethodPix {
		t.Fatalf("unexpected payment method %q %v", got, err)
	}
	if got, err := ParseAntifraudStatus("pending_review"); err != nil || got != AntifraudPendingReview {
		t.Fatalf("unexpected antifraud status %q %v", got, err)
	}
	if !AntifraudDenied.Blocks() || AntifraudPendingReview.Blocks() {
		t.Fatal("only DENIED should block")
	}
}
