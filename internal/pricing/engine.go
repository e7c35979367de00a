package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pasar/internal/order"
	"github.com/noah-isme/backend-pasar/internal/settings"
)

var hundred = decimal.NewFromInt(100)

// Item describes a line used for totals calculation.
type Item struct {
	Quantity  int32
	UnitPrice decimal.Decimal
}

// Summary aggregates the computed pricing components of an order. The
// invariant TotalAmount == Subtotal + TaxAmount + PlatformFee + ShippingCost
// - CouponDiscount holds exactly after rounding to the smallest currency
// unit.
type Summary struct {
	Subtotal       decimal.Decimal
	CouponDiscount decimal.Decimal
	ShippingCost   decimal.Decimal
	PlatformFee    decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Subtotal sums price * quantity across items, skipping non-positive
// quantities.
func Subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Finalize combines the order components into the customer-facing total.
// The result never goes below zero even if the discount exceeds the other
// components combined.
func Finalize(subtotal, couponDiscount, shipping, platformFee, tax decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(tax).Add(platformFee).Add(shipping).Sub(couponDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}

// FeePercent resolves the platform fee percentage for a payment method from
// settings. Card-style channels (CARD, RAZORPAY, CC) share one rate,
// net-banking another; COD and UPI default to zero, as does any unknown
// method. Both the internal method names and the gateway's lowercase channel
// names are accepted.
func FeePercent(ctx context.Context, s *settings.Provider, method order.PaymentMethod) decimal.Decimal {
	switch strings.ToUpper(strings.TrimSpace(string(method))) {
	case "CARD", "CC", "RAZORPAY":
		return s.Decimal(ctx, settings.KeyPlatformFeeCard, settings.DefaultPlatformFeeCard)
	case "NET_BANKING", "NETBANKING", "NB":
		return s.Decimal(ctx, settings.KeyPlatformFeeNetBanking, settings.DefaultPlatformFeeNetBanking)
	case "UPI":
		return s.Decimal(ctx, settings.KeyPlatformFeeUPI, settings.DefaultPlatformFeeUPI)
	case "COD":
		return s.Decimal(ctx, settings.KeyPlatformFeeCOD, settings.DefaultPlatformFeeCOD)
	default:
		return decimal.Zero
	}
}

// PlatformFee computes the fee amount for a subtotal at the given percentage,
// rounded half-up to the smallest currency unit.
func PlatformFee(subtotal, percent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(percent).Div(hundred).Round(2)
}

// Tax computes the nominal tax amount for a subtotal at the given rate. A
// fee_only coupon discount is subtracted from the order total afterwards,
// never from this nominal figure.
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Div(hundred).Round(2)
}

// Totals assembles the full summary from pre-computed components.
func Totals(subtotal, couponDiscount, shipping, platformFee, tax decimal.Decimal) Summary {
	if couponDiscount.IsNegative() {
		couponDiscount = decimal.Zero
	}
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}
	return Summary{
		Subtotal:       subtotal.Round(2),
		CouponDiscount: couponDiscount.Round(2),
		ShippingCost:   shipping.Round(2),
		PlatformFee:    platformFee.Round(2),
		TaxAmount:      tax.Round(2),
		TotalAmount:    Finalize(subtotal.Round(2), couponDiscount.Round(2), shipping.Round(2), platformFee.Round(2), tax.Round(2)),
	}
}

// Quote computes the totals for a cart snapshot against current settings.
// The discount is taken as already evaluated and capped by the coupon
// evaluator.
func Quote(ctx context.Context, s *settings.Provider, items []Item, method order.PaymentMethod, shipping, couponDiscount decimal.Decimal) Summary {
	subtotal := Subtotal(items)
	feePct := FeePercent(ctx, s, method)
	taxRate := s.Decimal(ctx, settings.KeyTaxRate, settings.DefaultTaxRate)
	fee := PlatformFee(subtotal, feePct)
	tax := Tax(subtotal, taxRate)
	return Totals(subtotal, couponDiscount, shipping, fee, tax)
}
