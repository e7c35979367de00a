package coupon

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluate decides whether the rule applies to the given order context and
// computes the discount amount. Rejections come back as the package's
// sentinel errors and are recoverable; the caller simply proceeds without a
// discount. All arithmetic is fixed-point with a single half-up rounding to
// the smallest currency unit applied to the final amount.
func Evaluate(r Rule, ctx Context) (Result, error) {
	if !r.Active || ctx.Now.Before(r.ValidFrom) {
		return Result{}, ErrCouponInactive
	}
	if ctx.Now.After(r.ValidUntil) {
		return Result{}, ErrCouponExpired
	}
	if r.UsageLimit != nil && r.UsedCount >= *r.UsageLimit {
		return Result{}, ErrUsageLimitReached
	}
	if r.OneTimePerUser && ctx.AlreadyUsed {
		return Result{}, ErrAlreadyUsed
	}

	switch r.Scope {
	case ScopeFeeOnly:
		return evaluateFeeOnly(r, ctx)
	case ScopeAllProducts, ScopePlatformOnly:
		return evaluateProductScope(r, ctx)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownScope, r.Scope)
	}
}

// evaluateFeeOnly discounts the fee/tax portion only. The minimum order check
// runs against the full order amount, not the fee/tax base.
func evaluateFeeOnly(r Rule, ctx Context) (Result, error) {
	if ctx.PlatformFee == nil || ctx.TaxAmount == nil {
		return Result{}, ErrFeeAndTaxRequired
	}
	if ctx.OrderSubtotal.LessThan(r.MinOrderAmount) {
		return Result{}, fmt.Errorf("%w: minimum %s required", ErrMinimumOrderUnmet, r.MinOrderAmount.StringFixed(2))
	}
	base := ctx.PlatformFee.Add(*ctx.TaxAmount)
	if !base.IsPositive() {
		return Result{}, ErrNothingToDiscount
	}
	discount := computeDiscount(r, base)
	return Result{
		Discount: discount,
		FeeOnly:  true,
		Message:  "discount applies to platform fee and tax only",
	}, nil
}

// evaluateProductScope handles all_products and platform_only rules. The
// applicable base is the caller-supplied scoped subtotal when present,
// otherwise the whole order subtotal.
func evaluateProductScope(r Rule, ctx Context) (Result, error) {
	base := ctx.OrderSubtotal
	if ctx.ScopedSubtotal != nil {
		base = *ctx.ScopedSubtotal
	}
	if base.LessThan(r.MinOrderAmount) {
		return Result{}, fmt.Errorf("%w: minimum %s required", ErrMinimumOrderUnmet, r.MinOrderAmount.StringFixed(2))
	}
	return Result{Discount: computeDiscount(r, base), Message: "discount applied"}, nil
}

// computeDiscount applies the discount kind to the base. Percentage discounts
// are capped by the optional max discount; fixed discounts are capped at the
// base itself. Rounding happens once, here.
func computeDiscount(r Rule, base decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch r.Kind {
	case KindPercentage:
		discount = base.Mul(r.Value).Div(hundred)
		if r.MaxDiscount != nil {
			discount = decimal.Min(discount, *r.MaxDiscount)
		}
	default:
		discount = decimal.Min(r.Value, base)
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}
