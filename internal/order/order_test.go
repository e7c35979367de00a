package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestVendorItemsSubtotal(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	o := Order{Items: []Item{
		{VendorID: &vendorA, Quantity: 2, Price: dec("100")},
		{VendorID: &vendorB, Quantity: 1, Price: dec("300")},
		{VendorID: nil, Quantity: 3, Price: dec("50")},
	}}

	if got := o.VendorItemsSubtotal(&vendorA).StringFixed(2); got != "200.00" {
		t.Fatalf("vendor A subtotal: %s", got)
	}
	if got := o.VendorItemsSubtotal(nil).StringFixed(2); got != "150.00" {
		t.Fatalf("platform subtotal: %s", got)
	}
	if got := o.ItemsSubtotal().StringFixed(2); got != "650.00" {
		t.Fatalf("items subtotal: %s", got)
	}
}

func TestReconcileWithinTolerance(t *testing.T) {
	o := Order{
		Subtotal:       dec("1000.00"),
		TaxAmount:      dec("50.00"),
		PlatformFee:    dec("23.60"),
		ShippingCost:   dec("40.00"),
		CouponDiscount: dec("100.00"),
		TotalAmount:    dec("1013.61"),
	}
	diff, ok := o.Reconcile()
	if !ok {
		t.Fatalf("one-paisa difference should reconcile, diff=%s", diff)
	}
	if diff.StringFixed(2) != "0.01" {
		t.Fatalf("diff: %s", diff)
	}
}

func TestReconcileOutOfTolerance(t *testing.T) {
	o := Order{
		Subtotal:    dec("1000.00"),
		TotalAmount: dec("1000.05"),
	}
	diff, ok := o.Reconcile()
	if ok {
		t.Fatalf("five-paisa difference should fail, diff=%s", diff)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusReturned} {
		if !s.Valid() {
			t.Fatalf("status %s should be valid", s)
		}
	}
	if Status("archived").Valid() {
		t.Fatal("unknown status accepted")
	}
}
