package allocation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pasar/internal/order"
)

// PlatformKey identifies the synthetic pseudo-vendor collecting first-party
// (vendor-less) items in a breakdown.
const PlatformKey = "platform"

var hundred = decimal.NewFromInt(100)

// TaxRateSource supplies the current global tax rate. It is only consulted on
// the degenerate path where an order has a zero recorded subtotal and the
// per-order tax base is unavailable; the reconstructed tax share then uses
// the rate in force now, not the rate captured at order time. That is the
// reference system's observed behaviour and is preserved as-is.
type TaxRateSource interface {
	TaxRate(ctx context.Context) decimal.Decimal
}

// Allocation is one vendor's proportional share of a single order. It is
// ephemeral: recomputed on every query, never persisted.
type Allocation struct {
	VendorID         *uuid.UUID
	ItemsSubtotal    decimal.Decimal
	ShareRatio       decimal.Decimal
	OrderValueShare  decimal.Decimal
	PlatformFeeShare decimal.Decimal
	TaxShare         decimal.Decimal
	NetRevenue       decimal.Decimal
}

// Platform reports whether the allocation belongs to the synthetic platform
// pseudo-vendor.
func (a Allocation) Platform() bool {
	return a.VendorID == nil
}

// Key returns the breakdown map key for the allocation.
func (a Allocation) Key() string {
	if a.VendorID == nil {
		return PlatformKey
	}
	return a.VendorID.String()
}

// Breakdown is the full per-vendor split of one order. OutOfBalance is a
// non-fatal data-integrity warning raised when the stored total does not
// reconcile with its components; the shares are still computed from the
// stored figures.
type Breakdown struct {
	OrderID      uuid.UUID
	Allocations  map[string]Allocation
	OutOfBalance bool
}

// Engine computes per-vendor financial allocations. It is pure computation
// over immutable snapshots and safe for concurrent use.
type Engine struct {
	Rates TaxRateSource
}

// Allocate computes one vendor's share of the order. A nil vendorID selects
// the platform-owned items. Orders with a zero recorded subtotal never
// divide: the order-value share falls back to the vendor's raw items
// subtotal and the tax share is reconstructed from the current tax rate.
func (e Engine) Allocate(ctx context.Context, o order.Order, vendorID *uuid.UUID) Allocation {
	sub := o.VendorItemsSubtotal(vendorID)

	alloc := Allocation{
		VendorID:      vendorID,
		ItemsSubtotal: sub,
	}

	if o.Subtotal.IsPositive() {
		alloc.ShareRatio = sub.Div(o.Subtotal)
		alloc.OrderValueShare = o.TotalAmount.Mul(alloc.ShareRatio).Round(2)
	} else {
		// Degenerate order: treat the raw items value as the share.
		alloc.OrderValueShare = sub
	}

	itemsTotal := o.ItemsSubtotal()
	if itemsTotal.IsPositive() {
		alloc.PlatformFeeShare = sub.Div(itemsTotal).Mul(o.PlatformFee).Round(2)
	}

	if o.Subtotal.IsPositive() {
		alloc.TaxShare = sub.Div(o.Subtotal).Mul(o.TaxAmount).Round(2)
	} else if sub.IsPositive() && e.Rates != nil {
		alloc.TaxShare = sub.Mul(e.Rates.TaxRate(ctx)).Div(hundred).Round(2)
	}

	net := alloc.OrderValueShare.Sub(alloc.PlatformFeeShare).Sub(alloc.TaxShare)
	if net.IsNegative() {
		net = decimal.Zero
	}
	alloc.NetRevenue = net
	return alloc
}

// AllocateAll splits the whole order across every contributing vendor plus
// the synthetic platform pseudo-vendor when vendor-less items are present.
// The order-value shares sum back to the order total within rounding
// tolerance.
func (e Engine) AllocateAll(ctx context.Context, o order.Order) Breakdown {
	bd := Breakdown{
		OrderID:     o.ID,
		Allocations: make(map[string]Allocation),
	}
	if _, ok := o.Reconcile(); !ok {
		bd.OutOfBalance = true
	}

	seen := make(map[string]*uuid.UUID)
	for _, it := range o.Items {
		if it.VendorID == nil {
			seen[PlatformKey] = nil
			continue
		}
		id := *it.VendorID
		seen[id.String()] = &id
	}
	for key, vid := range seen {
		bd.Allocations[key] = e.Allocate(ctx, o, vid)
	}
	return bd
}

// SellerCut returns the platform's take from the seller portions of a
// breakdown: the sum of platform-fee and tax shares across real vendors.
// This is the platform's "net profit from sellers" and must never be folded
// into platform product profit without labelling.
func (bd Breakdown) SellerCut() decimal.Decimal {
	total := decimal.Zero
	for key, a := range bd.Allocations {
		if key == PlatformKey {
			continue
		}
		total = total.Add(a.PlatformFeeShare).Add(a.TaxShare)
	}
	return total
}

// PlatformProductValue returns the full order-value share of platform-owned
// items. The platform keeps 100% of its own sales; there is no further
// split.
func (bd Breakdown) PlatformProductValue() decimal.Decimal {
	if a, ok := bd.Allocations[PlatformKey]; ok {
		return a.OrderValueShare
	}
	return decimal.Zero
}
