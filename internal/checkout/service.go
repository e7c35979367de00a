// Package checkout turns a validated cart snapshot into a persisted order.
// It is the single write path that exercises the whole financial engine:
// settings, coupon evaluation, totals, and the atomic coupon redemption all
// run inside one database transaction.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pasar/internal/coupon"
	"github.com/noah-isme/backend-pasar/internal/events"
	"github.com/noah-isme/backend-pasar/internal/obs"
	"github.com/noah-isme/backend-pasar/internal/order"
	"github.com/noah-isme/backend-pasar/internal/pricing"
	"github.com/noah-isme/backend-pasar/internal/repo"
	"github.com/noah-isme/backend-pasar/internal/settings"
)

var (
	// ErrPaymentMethodDisabled is returned when the requested payment channel
	// is switched off in settings.
	ErrPaymentMethodDisabled = errors.New("payment method disabled")
	// ErrEmptyOrder is returned for an input without purchasable lines.
	ErrEmptyOrder = errors.New("order has no items")
)

// InputItem is one requested order line.
type InputItem struct {
	ProductID string  `json:"productId" validate:"required,uuid4"`
	VendorID  *string `json:"vendorId" validate:"omitempty,uuid4"`
	Quantity  int32   `json:"quantity" validate:"required,gt=0"`
	Price     string  `json:"price" validate:"required"`
}

// Input is a checkout request.
type Input struct {
	CustomerID    string      `json:"customerId" validate:"required,uuid4"`
	Items         []InputItem `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string      `json:"paymentMethod" validate:"required"`
	ShippingCost  string      `json:"shippingCost" validate:"omitempty"`
	CouponCode    string      `json:"couponCode" validate:"omitempty,max=64"`
}

// Output is the checkout response. Monetary values are 2dp decimal strings.
type Output struct {
	OrderID        string `json:"orderId"`
	Status         string `json:"status"`
	Subtotal       string `json:"subtotal"`
	CouponDiscount string `json:"couponDiscount"`
	ShippingCost   string `json:"shippingCost"`
	PlatformFee    string `json:"platformFee"`
	TaxAmount      string `json:"taxAmount"`
	TotalAmount    string `json:"totalAmount"`
	CouponApplied  bool   `json:"couponApplied"`
	CouponMessage  string `json:"couponMessage,omitempty"`
}

// Service creates orders. Pool is required; the coupon path is skipped
// entirely when no code is supplied or coupons are disabled.
type Service struct {
	Pool     *pgxpool.Pool
	Settings *settings.Provider
	Validate *validator.Validate
	Events   *events.Bus
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates the input, prices the order, persists it and redeems the
// coupon, all in one transaction. A rejected coupon never fails the checkout;
// the order proceeds without a discount and the rejection reason is reported
// back in CouponMessage.
func (s *Service) Create(ctx context.Context, in Input) (Output, error) {
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

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	coupons := repo.Coupons{DB: tx}
	orders := repo.Orders{DB: tx}

	pricingItems := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		pricingItems = append(pricingItems, pricing.Item{Quantity: it.Quantity, UnitPrice: it.Price})
	}

	applied, result, rule, couponMsg, err := s.applyCoupon(ctx, coupons, customerID, items, pricingItems, method, in.CouponCode, true)
	if err != nil {
		return Output{}, err
	}

	summary := pricing.Quote(ctx, s.Settings, pricingItems, method, shipping, result.Discount)

	o := order.Order{
		ID:             uuid.New(),
		CustomerID:     customerID,
		Status:         order.StatusPending,
		PaymentMethod:  method,
		PaymentStatus:  order.PaymentPending,
		Subtotal:       summary.Subtotal,
		CouponDiscount: summary.CouponDiscount,
		ShippingCost:   summary.ShippingCost,
		PlatformFee:    summary.PlatformFee,
		TaxAmount:      summary.TaxAmount,
		TotalAmount:    summary.TotalAmount,
		Items:          items,
	}
	if applied {
		id := rule.ID
		o.CouponID = &id
	}

	if err := orders.Insert(ctx, &o); err != nil {
		return Output{}, err
	}
	if applied {
		if err := coupons.Redeem(ctx, rule.ID); err != nil {
			// The FOR UPDATE load already checked the limit, so exhaustion
			// here means the row changed underneath us. Abort rather than
			// over-redeem.
			return Output{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	countCheckout("created")
	if s.Events != nil {
		s.Events.Publish(ctx, events.Event{Topic: events.TopicOrderCreated, OrderID: o.ID})
	}

	return Output{
		OrderID:        o.ID.String(),
		Status:         string(o.Status),
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

// applyCoupon loads and evaluates the coupon. When lock is set the row is
// loaded FOR UPDATE so the redemption later in the transaction cannot race a
// concurrent checkout. Rejections degrade to a zero discount with the reason
// in the returned message; only infrastructure errors propagate.
func (s *Service) applyCoupon(
	ctx context.Context,
	coupons repo.Coupons,
	customerID uuid.UUID,
	items []order.Item,
	pricingItems []pricing.Item,
	method order.PaymentMethod,
	code string,
	lock bool,
) (bool, coupon.Result, coupon.Rule, string, error) {
	var zero coupon.Result
	if code == "" {
		return false, zero, coupon.Rule{}, "", nil
	}
	if !s.Settings.Bool(ctx, settings.KeyCouponsEnabled, true) {
		return false, zero, coupon.Rule{}, "coupons are currently disabled", nil
	}

	find := coupons.FindByCode
	if lock {
		find = coupons.FindByCodeForUpdate
	}
	rule, err := find(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, zero, coupon.Rule{}, "coupon code not found", nil
		}
		return false, zero, coupon.Rule{}, "", err
	}

	cctx := coupon.Context{
		Now:           s.now(),
		OrderSubtotal: pricing.Subtotal(pricingItems),
	}
	if rule.OneTimePerUser {
		used, err := coupons.CustomerUsed(ctx, rule.ID, customerID)
		if err != nil {
			return false, zero, coupon.Rule{}, "", err
		}
		cctx.AlreadyUsed = used
	}
	if scoped := scopedSubtotal(rule, items); scoped != nil {
		cctx.ScopedSubtotal = scoped
	}
	if rule.Scope == coupon.ScopeFeeOnly {
		// Evaluate against the nominal fee and tax the order would carry
		// without a discount; the result is then subtracted from the total.
		nominal := pricing.Quote(ctx, s.Settings, pricingItems, method, decimal.Zero, decimal.Zero)
		fee, tax := nominal.PlatformFee, nominal.TaxAmount
		cctx.PlatformFee = &fee
		cctx.TaxAmount = &tax
	}

	result, err := coupon.Evaluate(rule, cctx)
	if err != nil {
		if coupon.IsRejection(err) {
			countEvaluation(rule.Scope, "rejected")
			return false, zero, coupon.Rule{}, err.Error(), nil
		}
		return false, zero, coupon.Rule{}, "", err
	}
	countEvaluation(rule.Scope, "applied")
	return true, result, rule, result.Message, nil
}

// scopedSubtotal narrows the coupon base to the owning vendor's items, or to
// platform-owned items for platform_only rules. Nil means the whole order.
func scopedSubtotal(rule coupon.Rule, items []order.Item) *decimal.Decimal {
	var match func(order.Item) bool
	switch {
	case rule.VendorID != nil:
		vid := *rule.VendorID
		match = func(it order.Item) bool { return it.VendorID != nil && *it.VendorID == vid }
	case rule.Scope == coupon.ScopePlatformOnly:
		match = func(it order.Item) bool { return it.PlatformOwned() }
	default:
		return nil
	}
	total := decimal.Zero
	for _, it := range items {
		if match(it) {
			total = total.Add(it.LineSubtotal())
		}
	}
	return &total
}

func (s *Service) checkMethodEnabled(ctx context.Context, method order.PaymentMethod) error {
	switch method {
	case order.MethodCOD:
		if !s.Settings.Bool(ctx, settings.KeyCODEnabled, true) {
			return fmt.Errorf("%w: cash on delivery", ErrPaymentMethodDisabled)
		}
	case order.MethodRazorpay, order.MethodCard, order.MethodNetBanking, order.MethodUPI:
		if !s.Settings.Bool(ctx, settings.KeyRazorpayEnabled, true) {
			return fmt.Errorf("%w: online payments", ErrPaymentMethodDisabled)
		}
	}
	return nil
}

func parseItems(in []InputItem) ([]order.Item, error) {
	out := make([]order.Item, 0, len(in))
	for i, it := range in {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("item %d: invalid product id: %w", i, err)
		}
		price, err := parseMoney(it.Price)
		if err != nil {
			return nil, fmt.Errorf("item %d: invalid price: %w", i, err)
		}
		item := order.Item{ProductID: productID, Quantity: it.Quantity, Price: price}
		if it.VendorID != nil && *it.VendorID != "" {
			vid, err := uuid.Parse(*it.VendorID)
			if err != nil {
				return nil, fmt.Errorf("item %d: invalid vendor id: %w", i, err)
			}
			item.VendorID = &vid
		}
		out = append(out, item)
	}
	return out, nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if value.IsNegative() {
		return decimal.Zero, nil
	}
	return value, nil
}

func countEvaluation(scope coupon.Scope, result string) {
	if obs.CouponEvaluationsTotal != nil {
		obs.CouponEvaluationsTotal.WithLabelValues(string(scope), result).Inc()
	}
}

func countCheckout(result string) {
	if obs.CheckoutOrdersTotal != nil {
		obs.CheckoutOrdersTotal.WithLabelValues(result).Inc()
	}
}
