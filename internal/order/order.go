package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// PaymentStatus enumerates payment settlement states.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod enumerates supported payment channels.
type PaymentMethod string

const (
	MethodCOD        PaymentMethod = "COD"
	MethodRazorpay   PaymentMethod = "RAZORPAY"
	MethodCard       PaymentMethod = "CARD"
	MethodNetBanking PaymentMethod = "NET_BANKING"
	MethodUPI        PaymentMethod = "UPI"
	MethodWallet     PaymentMethod = "WALLET"
)

// Item is a single order line captured at checkout time. Price is the unit
// price at order time and never tracks later catalog changes. A nil VendorID
// marks first-party (platform-owned) inventory.
type Item struct {
	ProductID uuid.UUID
	VendorID  *uuid.UUID
	Quantity  int32
	Price     decimal.Decimal
}

// LineSubtotal returns price multiplied by quantity.
func (it Item) LineSubtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// PlatformOwned reports whether the line belongs to first-party inventory.
func (it Item) PlatformOwned() bool {
	return it.VendorID == nil
}

// Order is an immutable financial snapshot of a placed order. Monetary fields
// are fixed at creation; only status and tracking fields change afterwards.
type Order struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	Status         Status
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	Subtotal       decimal.Decimal
	CouponID       *uuid.UUID
	CouponDiscount decimal.Decimal
	ShippingCost   decimal.Decimal
	PlatformFee    decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	Items          []Item
	CreatedAt      time.Time
}

// ItemsSubtotal sums price * quantity across every line in the order.
func (o Order) ItemsSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineSubtotal())
	}
	return total
}

// VendorItemsSubtotal sums the lines owned by the given vendor. A nil vendor
// selects the platform-owned lines.
func (o Order) VendorItemsSubtotal(vendorID *uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		if !sameOwner(it.VendorID, vendorID) {
			continue
		}
		total = total.Add(it.LineSubtotal())
	}
	return total
}

func sameOwner(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ReconcileTolerance is one smallest currency unit.
var ReconcileTolerance = decimal.New(1, -2)

// Reconcile checks the stored total against its components. It returns the
// signed difference (stored minus recomputed) and whether the difference is
// within one smallest currency unit. A failed reconciliation indicates
// upstream miscalculation and is surfaced as a warning, never an error.
func (o Order) Reconcile() (decimal.Decimal, bool) {
	expected := o.Subtotal.
		Add(o.TaxAmount).
		Add(o.PlatformFee).
		Add(o.ShippingCost).
		Sub(o.CouponDiscount)
	diff := o.TotalAmount.Sub(expected)
	return diff, diff.Abs().LessThanOrEqual(ReconcileTolerance)
}
