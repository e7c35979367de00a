package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pasar/internal/coupon"
)

// ErrUsageExhausted is returned by Redeem when the conditional increment
// finds the usage limit already reached.
var ErrUsageExhausted = errors.New("repo: coupon usage exhausted")

// Coupons provides coupon lookups and the atomic redemption increment.
type Coupons struct {
	DB DB
}

const couponColumns = `id, code, scope, kind, value, min_order_amount,
	max_discount_amount, valid_from, valid_until, is_active, usage_limit,
	used_count, one_time_per_user, vendor_id`

const findCouponByCodeSQL = `SELECT ` + couponColumns + `
FROM coupons WHERE code = $1`

// FindByCode loads a coupon rule by its code (case-insensitive, codes are
// stored upper-case).
func (r Coupons) FindByCode(ctx context.Context, code string) (coupon.Rule, error) {
	return r.findByCode(ctx, code, findCouponByCodeSQL)
}

// FindByCodeForUpdate is FindByCode with a row lock. Checkout calls it inside
// the redemption transaction so two concurrent checkouts serialise on the
// coupon row.
func (r Coupons) FindByCodeForUpdate(ctx context.Context, code string) (coupon.Rule, error) {
	return r.findByCode(ctx, code, findCouponByCodeSQL+` FOR UPDATE`)
}

func (r Coupons) findByCode(ctx context.Context, code, query string) (coupon.Rule, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	var rule coupon.Rule
	err := r.DB.QueryRow(ctx, query, normalized).Scan(
		&rule.ID,
		&rule.Code,
		&rule.Scope,
		&rule.Kind,
		&rule.Value,
		&rule.MinOrderAmount,
		&rule.MaxDiscount,
		&rule.ValidFrom,
		&rule.ValidUntil,
		&rule.Active,
		&rule.UsageLimit,
		&rule.UsedCount,
		&rule.OneTimePerUser,
		&rule.VendorID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.Rule{}, ErrNotFound
		}
		return coupon.Rule{}, fmt.Errorf("find coupon %q: %w", normalized, err)
	}
	return rule, nil
}

const redeemCouponSQL = `UPDATE coupons
SET used_count = used_count + 1, updated_at = now()
WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`

// Redeem increments the coupon's used count as a single conditional update.
// The WHERE clause is the atomic usage-limit guard: of two simultaneous
// checkouts racing past a limit of one, exactly one update succeeds.
func (r Coupons) Redeem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, redeemCouponSQL, id)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUsageExhausted
	}
	return nil
}

const customerUsedCouponSQL = `SELECT EXISTS (
	SELECT 1 FROM orders WHERE coupon_id = $1 AND customer_id = $2
)`

// CustomerUsed reports whether the customer already has an order carrying
// this coupon. The evaluator consumes the boolean; computing it here keeps
// the evaluator free of a coupon→order dependency cycle.
func (r Coupons) CustomerUsed(ctx context.Context, couponID, customerID uuid.UUID) (bool, error) {
	var used bool
	if err := r.DB.QueryRow(ctx, customerUsedCouponSQL, couponID, customerID).Scan(&used); err != nil {
		return false, fmt.Errorf("check coupon usage: %w", err)
	}
	return used, nil
}
