package coupon

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func activeRule(kind Kind, value string) Rule {
	now := time.Now()
	return Rule{
		Code:       "PROMO",
		Scope:      ScopeAllProducts,
		Kind:       kind,
		Value:      dec(value),
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
		Active:     true,
	}
}

func TestEvaluateInactive(t *testing.T) {
	r := activeRule(KindPercentage, "10")
	r.Active = false
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000")})
	if !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected ErrCouponInactive, got %v", err)
	}
}

func TestEvaluateBeforeWindow(t *testing.T) {
	r := activeRule(KindPercentage, "10")
	r.ValidFrom = time.Now().Add(time.Hour)
	r.ValidUntil = time.Now().Add(2 * time.Hour)
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000")})
	if !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected ErrCouponInactive, got %v", err)
	}
}

func TestEvaluateExpired(t *testing.T) {
	r := activeRule(KindPercentage, "10")
	r.ValidUntil = time.Now().Add(-time.Minute)
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000")})
	if !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got %v", err)
	}
}

func TestEvaluateUsageLimit(t *testing.T) {
	r := activeRule(KindFixed, "50")
	limit := int32(1)
	r.UsageLimit = &limit
	r.UsedCount = 1
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000")})
	if !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
}

func TestEvaluateOneTimePerUser(t *testing.T) {
	r := activeRule(KindFixed, "50")
	r.OneTimePerUser = true
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000"), AlreadyUsed: true})
	if !errors.Is(err, ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed, got %v", err)
	}
}

func TestEvaluateMinimumOrder(t *testing.T) {
	r := activeRule(KindPercentage, "10")
	r.MinOrderAmount = dec("500")
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("499.99")})
	if !errors.Is(err, ErrMinimumOrderUnmet) {
		t.Fatalf("expected ErrMinimumOrderUnmet, got %v", err)
	}
}

func TestEvaluatePercentage(t *testing.T) {
	r := activeRule(KindPercentage, "10")
	res, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1250.55")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := res.Discount.StringFixed(2); got != "125.06" {
		t.Fatalf("expected 125.06, got %s", got)
	}
	if res.FeeOnly {
		t.Fatal("product-scope discount flagged FeeOnly")
	}
}

func TestEvaluatePercentageCappedByMax(t *testing.T) {
	r := activeRule(KindPercentage, "50")
	cap := dec("100")
	r.MaxDiscount = &cap
	res, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Discount.Equal(dec("100")) {
		t.Fatalf("expected cap 100, got %s", res.Discount)
	}
}

func TestEvaluateFixedCappedAtBase(t *testing.T) {
	r := activeRule(KindFixed, "500")
	res, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("120")})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Discount.Equal(dec("120")) {
		t.Fatalf("expected 120, got %s", res.Discount)
	}
}

func TestEvaluateScopedSubtotal(t *testing.T) {
	r := activeRule(KindPercentage, "20")
	r.Scope = ScopePlatformOnly
	scoped := dec("300")
	res, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000"), ScopedSubtotal: &scoped})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Discount.Equal(dec("60")) {
		t.Fatalf("expected 60 (20%% of scoped 300), got %s", res.Discount)
	}
}

func TestEvaluateScopedMinimumUsesScopedBase(t *testing.T) {
	r := activeRule(KindPercentage, "20")
	r.Scope = ScopePlatformOnly
	r.MinOrderAmount = dec("500")
	scoped := dec("300")
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000"), ScopedSubtotal: &scoped})
	if !errors.Is(err, ErrMinimumOrderUnmet) {
		t.Fatalf("expected ErrMinimumOrderUnmet against scoped base, got %v", err)
	}
}

func TestEvaluateFeeOnly(t *testing.T) {
	r := activeRule(KindPercentage, "50")
	r.Scope = ScopeFeeOnly
	fee := dec("20")
	tax := dec("50")
	res, err := Evaluate(r, Context{
		Now:           time.Now(),
		OrderSubtotal: dec("1000"),
		PlatformFee:   &fee,
		TaxAmount:     &tax,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.FeeOnly {
		t.Fatal("expected FeeOnly result")
	}
	if !res.Discount.Equal(dec("35")) {
		t.Fatalf("expected 35 (50%% of fee+tax 70), got %s", res.Discount)
	}
}

func TestEvaluateFeeOnlyRequiresFeeAndTax(t *testing.T) {
	r := activeRule(KindPercentage, "50")
	r.Scope = ScopeFeeOnly
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000")})
	if !errors.Is(err, ErrFeeAndTaxRequired) {
		t.Fatalf("expected ErrFeeAndTaxRequired, got %v", err)
	}
}

func TestEvaluateFeeOnlyMinimumAgainstOrder(t *testing.T) {
	r := activeRule(KindPercentage, "50")
	r.Scope = ScopeFeeOnly
	r.MinOrderAmount = dec("2000")
	fee := dec("20")
	tax := dec("50")
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000"), PlatformFee: &fee, TaxAmount: &tax})
	if !errors.Is(err, ErrMinimumOrderUnmet) {
		t.Fatalf("expected ErrMinimumOrderUnmet, got %v", err)
	}
}

func TestEvaluateFeeOnlyNothingToDiscount(t *testing.T) {
	r := activeRule(KindPercentage, "50")
	r.Scope = ScopeFeeOnly
	fee := decimal.Zero
	tax := decimal.Zero
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000"), PlatformFee: &fee, TaxAmount: &tax})
	if !errors.Is(err, ErrNothingToDiscount) {
		t.Fatalf("expected ErrNothingToDiscount, got %v", err)
	}
}

func TestEvaluateUnknownScope(t *testing.T) {
	r := activeRule(KindPercentage, "10")
	r.Scope = Scope("mystery")
	_, err := Evaluate(r, Context{Now: time.Now(), OrderSubtotal: dec("1000")})
	if !errors.Is(err, ErrUnknownScope) {
		t.Fatalf("expected ErrUnknownScope, got %v", err)
	}
	if IsRejection(err) {
		t.Fatal("unknown scope must not be a recoverable rejection")
	}
}

func TestIsRejection(t *testing.T) {
	for _, err := range []error{
		ErrCouponInactive, ErrCouponExpired, ErrUsageLimitReached,
		ErrAlreadyUsed, ErrMinimumOrderUnmet, ErrFeeAndTaxRequired,
		ErrNothingToDiscount,
	} {
		if !IsRejection(err) {
			t.Fatalf("expected %v to be a rejection", err)
		}
	}
}
