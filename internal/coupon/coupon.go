package coupon

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrCouponInactive is returned when the coupon is disabled or its
	// validity window has not opened yet.
	ErrCouponInactive = errors.New("coupon not active")
	// ErrCouponExpired is returned when the validity window has closed.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrUsageLimitReached indicates the coupon has exhausted its global quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrAlreadyUsed indicates the customer has redeemed this one-per-customer
	// coupon before.
	ErrAlreadyUsed = errors.New("coupon can only be used once per customer")
	// ErrMinimumOrderUnmet indicates the applicable amount is below the
	// coupon's minimum order requirement.
	ErrMinimumOrderUnmet = errors.New("minimum order amount not met")
	// ErrFeeAndTaxRequired is returned when a fee-only coupon is evaluated
	// without the order's platform fee and tax amounts.
	ErrFeeAndTaxRequired = errors.New("fee and tax required")
	// ErrNothingToDiscount is returned when a fee-only coupon meets an order
	// whose combined fee and tax is zero.
	ErrNothingToDiscount = errors.New("nothing to discount")
	// ErrUnknownScope is returned for rules carrying an unrecognised scope.
	ErrUnknownScope = errors.New("unknown coupon scope")
)

// IsRejection reports whether err is a recoverable coupon rejection. Checkout
// responds to rejections by proceeding without a discount; it never aborts
// the order over one.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrCouponInactive),
		errors.Is(err, ErrCouponExpired),
		errors.Is(err, ErrUsageLimitReached),
		errors.Is(err, ErrAlreadyUsed),
		errors.Is(err, ErrMinimumOrderUnmet),
		errors.Is(err, ErrFeeAndTaxRequired),
		errors.Is(err, ErrNothingToDiscount):
		return true
	}
	return false
}

// Scope determines which portion of an order a coupon can discount.
type Scope string

const (
	// ScopeAllProducts discounts any item from any vendor.
	ScopeAllProducts Scope = "all_products"
	// ScopePlatformOnly discounts only first-party (platform-owned) items.
	ScopePlatformOnly Scope = "platform_only"
	// ScopeFeeOnly discounts only the tax and platform-fee portion of an
	// order, never product price. It exists so externally imposed discounts
	// cannot eat into a non-consenting seller's revenue.
	ScopeFeeOnly Scope = "fee_only"
)

// Kind selects between proportional and flat discounts.
type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
)

// Rule is a coupon definition snapshot. UsedCount is read at evaluation time;
// incrementing it against UsageLimit is the persistence layer's atomic
// concern, not the evaluator's.
type Rule struct {
	ID             uuid.UUID
	Code           string
	Scope          Scope
	Kind           Kind
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxDiscount    *decimal.Decimal
	ValidFrom      time.Time
	ValidUntil     time.Time
	Active         bool
	UsageLimit     *int32
	UsedCount      int32
	OneTimePerUser bool
	VendorID       *uuid.UUID
}

// Context carries the order-side inputs for an evaluation. ScopedSubtotal is
// the portion of the order the coupon is narrowed to: the owning vendor's
// items for vendor-bound coupons, the platform-owned items for platform_only
// coupons. When nil the whole order subtotal applies. PlatformFee and
// TaxAmount are required for fee_only rules. AlreadyUsed is pre-computed by
// the caller so the evaluator stays free of persistence dependencies.
type Context struct {
	Now            time.Time
	OrderSubtotal  decimal.Decimal
	ScopedSubtotal *decimal.Decimal
	PlatformFee    *decimal.Decimal
	TaxAmount      *decimal.Decimal
	AlreadyUsed    bool
}

// Result is a successful evaluation outcome. FeeOnly signals that the
// discount reduces the fee/tax portion rather than product price; downstream
// accounting treats the two differently.
type Result struct {
	Discount decimal.Decimal
	FeeOnly  bool
	Message  string
}
