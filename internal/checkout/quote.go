package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pasar/internal/order"
	"github.com/noah-isme/backend-pasar/internal/pricing"
	"github.com/noah-isme/backend-pasar/internal/repo"
)

// Quote prices the input without persisting anything. The coupon row is read
// without a lock, so a quoted discount can still be lost to a concurrent
// redemption by the time Create runs.
func (s *Service) Quote(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Pool == nil || s.Settings == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Output{}, fmt.Errorf("invalid checkout input: %w", err)
		}
	}
	customerID, err := uuid.Parse(in.CustomerID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid customer id: %w", err)
	}
	items, err := parseItems(in.Items)
	if err != nil {
		return Output{}, err
	}
	if len(items) == 0 {
		return Output{}, ErrEmptyOrder
	}
	shipping, err := parseMoney(in.ShippingCost)
	if err != nil {
		return Output{}, fmt.Errorf("invalid shipping cost: %w", err)
	}
	method := order.PaymentMethod(in.PaymentMethod)
	if err := s.checkMethodEnabled(ctx, method); err != nil {
		return Output{}, err
	}

	pricingItems := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		pricingItems = append(pricingItems, pricing.Item{Quantity: it.Quantity, UnitPrice: it.Price})
	}

	coupons := repo.Coupons{DB: s.Pool}
	applied, result, _, couponMsg, err := s.applyCoupon(ctx, coupons, customerID, items, pricingItems, method, in.CouponCode, false)
	if err != nil {
		return Output{}, err
	}

	summary := pricing.Quote(ctx, s.Settings, pricingItems, method, shipping, result.Discount)
	return Output{
		Status:         "quote",
		Subtotal:       summary.Subtotal.StringFixed(2),
		CouponDiscount: summary.CouponDiscount.StringFixed(2),
		ShippingCost:   summary.ShippingCost.StringFixed(2),
		PlatformFee:    summary.PlatformFee.StringFixed(2),
		TaxAmount:      summary.TaxAmount.StringFixed(2),
		TotalAmount:    summary.TotalAmount.StringFixed(2),
		CouponApplied:  applied,
		CouponMessage:  couponMsg,
	}, nil
}
