package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pasar/internal/order"
)

// Orders persists and loads order financial snapshots.
type Orders struct {
	DB DB
}

const orderColumns = `id, customer_id, status, payment_method, payment_status,
	subtotal, coupon_id, coupon_discount, shipping_cost, platform_fee,
	tax_amount, total_amount, created_at`

const insertOrderSQL = `INSERT INTO orders (
	id, customer_id, status, payment_method, payment_status,
	subtotal, coupon_id, coupon_discount, shipping_cost, platform_fee,
	tax_amount, total_amount
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING created_at`

const insertOrderItemSQL = `INSERT INTO order_items (
	id, order_id, product_id, vendor_id, quantity, price
) VALUES ($1,$2,$3,$4,$5,$6)`

// Insert writes the order header and its lines. The caller owns the
// transaction; checkout runs this alongside the coupon redemption so both
// commit or neither does.
func (r Orders) Insert(ctx context.Context, o *order.Order) error {
	err := r.DB.QueryRow(ctx, insertOrderSQL,
		o.ID,
		o.CustomerID,
		o.Status,
		o.PaymentMethod,
		o.PaymentStatus,
		o.Subtotal,
		o.CouponID,
		o.CouponDiscount,
		o.ShippingCost,
		o.PlatformFee,
		o.TaxAmount,
		o.TotalAmount,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for _, it := range o.Items {
		if _, err := r.DB.Exec(ctx, insertOrderItemSQL,
			uuid.New(), o.ID, it.ProductID, it.VendorID, it.Quantity, it.Price,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

const getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

// Get loads a single order with its items.
func (r Orders) Get(ctx context.Context, id uuid.UUID) (order.Order, error) {
	var o order.Order
	if err := r.scanOrder(r.DB.QueryRow(ctx, getOrderSQL, id), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, ErrNotFound
		}
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	items, err := r.loadItems(ctx, []uuid.UUID{id})
	if err != nil {
		return order.Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

const updateOrderStatusSQL = `UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1`

// UpdateStatus moves an order to a new lifecycle state. Monetary columns are
// never touched after insert.
func (r Orders) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	tag, err := r.DB.Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const listWindowSQL = `SELECT ` + orderColumns + `
FROM orders
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at`

// ListWindow loads every order created inside [from, to) with items attached.
func (r Orders) ListWindow(ctx context.Context, from, to time.Time) ([]order.Order, error) {
	return r.list(ctx, listWindowSQL, from, to)
}

const listVendorWindowSQL = `SELECT ` + orderColumns + `
FROM orders
WHERE created_at >= $1 AND created_at < $2
  AND id IN (SELECT order_id FROM order_items WHERE vendor_id = $3)
ORDER BY created_at`

// ListVendorWindow loads the orders in [from, to) that contain at least one
// line owned by the vendor. Items for all vendors stay attached so the
// allocation ratios see the whole order.
func (r Orders) ListVendorWindow(ctx context.Context, vendorID uuid.UUID, from, to time.Time) ([]order.Order, error) {
	return r.list(ctx, listVendorWindowSQL, from, to, vendorID)
}

func (r Orders) list(ctx context.Context, query string, args ...any) ([]order.Order, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	var ids []uuid.UUID
	for rows.Next() {
		var o order.Order
		if err := r.scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

const listItemsSQL = `SELECT order_id, product_id, vendor_id, quantity, price
FROM order_items
WHERE order_id = ANY($1)
ORDER BY order_id`

func (r Orders) loadItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]order.Item, error) {
	rows, err := r.DB.Query(ctx, listItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[uuid.UUID][]order.Item, len(ids))
	for rows.Next() {
		var orderID uuid.UUID
		var it order.Item
		if err := rows.Scan(&orderID, &it.ProductID, &it.VendorID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		byOrder[orderID] = append(byOrder[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return byOrder, nil
}

func (r Orders) scanOrder(row pgx.Row, o *order.Order) error {
	return row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.Subtotal,
		&o.CouponID,
		&o.CouponDiscount,
		&o.ShippingCost,
		&o.PlatformFee,
		&o.TaxAmount,
		&o.TotalAmount,
		&o.CreatedAt,
	)
}
