package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pasar/internal/vendor"
)

// Vendors loads seller records.
type Vendors struct {
	DB DB
}

const vendorColumns = `id, brand_name, commission_pct, status, is_verified`

const getVendorSQL = `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`

func (r Vendors) Get(ctx context.Context, id uuid.UUID) (vendor.Vendor, error) {
	var v vendor.Vendor
	err := r.DB.QueryRow(ctx, getVendorSQL, id).Scan(
		&v.ID, &v.BrandName, &v.CommissionPct, &v.Status, &v.Verified,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return vendor.Vendor{}, ErrNotFound
		}
		return vendor.Vendor{}, fmt.Errorf("get vendor: %w", err)
	}
	return v, nil
}

const listEligibleVendorsSQL = `SELECT ` + vendorColumns + `
FROM vendors
WHERE status = 'active' AND is_verified
ORDER BY brand_name`

// ListEligible returns the vendors allowed to participate in new orders.
func (r Vendors) ListEligible(ctx context.Context) ([]vendor.Vendor, error) {
	rows, err := r.DB.Query(ctx, listEligibleVendorsSQL)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var out []vendor.Vendor
	for rows.Next() {
		var v vendor.Vendor
		if err := rows.Scan(&v.ID, &v.BrandName, &v.CommissionPct, &v.Status, &v.Verified); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return out, nil
}
