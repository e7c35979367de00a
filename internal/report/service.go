// Package report computes the admin and seller financial dashboards by
// replaying the allocation engine over order snapshots. Figures are never
// persisted; every query recomputes from the orders in the window and a redis
// cache absorbs the cost.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pasar/internal/allocation"
	"github.com/noah-isme/backend-pasar/internal/obs"
	"github.com/noah-isme/backend-pasar/internal/order"
)

// OrderSource loads order snapshots for a reporting window.
type OrderSource interface {
	ListWindow(ctx context.Context, from, to time.Time) ([]order.Order, error)
	ListVendorWindow(ctx context.Context, vendorID uuid.UUID, from, to time.Time) ([]order.Order, error)
}

// AdminSummary is the platform-wide financial dashboard for a window.
// SellerNetProfit and PlatformProductProfit are distinct figures; TotalNetRevenue
// is their sum and must always be presented alongside both components.
type AdminSummary struct {
	From                  time.Time       `json:"from"`
	To                    time.Time       `json:"to"`
	TotalOrders           int             `json:"total_orders"`
	GrossOrderValue       decimal.Decimal `json:"gross_order_value"`
	SellerNetProfit       decimal.Decimal `json:"seller_net_profit"`
	PlatformProductProfit decimal.Decimal `json:"platform_product_profit"`
	TotalNetRevenue       decimal.Decimal `json:"total_net_revenue"`
	DeliveredOrders       int             `json:"delivered_orders"`
	CODOrders             int             `json:"cod_orders"`
	OnlineOrders          int             `json:"online_orders"`
	OutOfBalanceOrders    int             `json:"out_of_balance_orders"`
}

// VendorSummary is one seller's dashboard for a window.
type VendorSummary struct {
	VendorID        uuid.UUID       `json:"vendor_id"`
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	TotalOrders     int             `json:"total_orders"`
	OrderValueShare decimal.Decimal `json:"order_value_share"`
	NetRevenue      decimal.Decimal `json:"net_revenue"`
	DeliveredOrders int             `json:"delivered_orders"`
	CODOrders       int             `json:"cod_orders"`
}

// DailySales is one bucket of the sales time series.
type DailySales struct {
	Date       string          `json:"date"`
	OrderCount int             `json:"order_count"`
	GrossValue decimal.Decimal `json:"gross_value"`
}

// Service provides cached access to the recomputed reports.
type Service struct {
	Orders       OrderSource
	Engine       allocation.Engine
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DefaultWindow returns [now - DefaultRange days, now).
func (s *Service) DefaultWindow() (time.Time, time.Time) {
	days := s.DefaultRange
	if days <= 0 {
		days = 30
	}
	to := s.now()
	return to.AddDate(0, 0, -days), to
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

const day = "2006-01-02"

// Admin returns the platform dashboard for the window.
func (s *Service) Admin(ctx context.Context, from, to time.Time) (AdminSummary, error) {
	if s == nil || s.Orders == nil {
		return AdminSummary{}, fmt.Errorf("report service not configured")
	}
	key := cacheKey("rp", s.version(ctx), "admin", from.Format(day), to.Format(day))
	var cached AdminSummary
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	orders, err := s.Orders.ListWindow(ctx, from, to)
	if err != nil {
		return AdminSummary{}, err
	}
	defer observeBuild("admin", time.Now())

	sum := AdminSummary{
		From:                  from,
		To:                    to,
		TotalOrders:           len(orders),
		GrossOrderValue:       decimal.Zero,
		SellerNetProfit:       decimal.Zero,
		PlatformProductProfit: decimal.Zero,
		TotalNetRevenue:       decimal.Zero,
	}
	for _, o := range orders {
		if o.Status == order.StatusCancelled {
			continue
		}
		sum.GrossOrderValue = sum.GrossOrderValue.Add(o.TotalAmount)
		if o.PaymentMethod == order.MethodCOD {
			sum.CODOrders++
		} else {
			sum.OnlineOrders++
		}

		bd := s.Engine.AllocateAll(ctx, o)
		if obs.AllocationsTotal != nil {
			obs.AllocationsTotal.Inc()
		}
		if bd.OutOfBalance {
			sum.OutOfBalanceOrders++
			if obs.OutOfBalanceTotal != nil {
				obs.OutOfBalanceTotal.Inc()
			}
		}
		if o.Status != order.StatusDelivered {
			continue
		}
		sum.DeliveredOrders++
		sum.SellerNetProfit = sum.SellerNetProfit.Add(bd.SellerCut())
		sum.PlatformProductProfit = sum.PlatformProductProfit.Add(bd.PlatformProductValue())
	}
	sum.GrossOrderValue = sum.GrossOrderValue.Round(2)
	sum.SellerNetProfit = sum.SellerNetProfit.Round(2)
	sum.PlatformProductProfit = sum.PlatformProductProfit.Round(2)
	sum.TotalNetRevenue = sum.SellerNetProfit.Add(sum.PlatformProductProfit)

	s.store(ctx, key, sum)
	return sum, nil
}

// Vendor returns one seller's dashboard for the window. Order-value shares
// cover all non-cancelled orders; net revenue counts delivered orders only.
func (s *Service) Vendor(ctx context.Context, vendorID uuid.UUID, from, to time.Time) (VendorSummary, error) {
	if s == nil || s.Orders == nil {
		return VendorSummary{}, fmt.Errorf("report service not configured")
	}
	key := cacheKey("rp", s.version(ctx), "vendor", vendorID, from.Format(day), to.Format(day))
	var cached VendorSummary
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	orders, err := s.Orders.ListVendorWindow(ctx, vendorID, from, to)
	if err != nil {
		return VendorSummary{}, err
	}
	defer observeBuild("vendor", time.Now())

	sum := VendorSummary{
		VendorID:        vendorID,
		From:            from,
		To:              to,
		TotalOrders:     len(orders),
		OrderValueShare: decimal.Zero,
		NetRevenue:      decimal.Zero,
	}
	vid := vendorID
	for _, o := range orders {
		if o.Status == order.StatusCancelled {
			continue
		}
		alloc := s.Engine.Allocate(ctx, o, &vid)
		sum.OrderValueShare = sum.OrderValueShare.Add(alloc.OrderValueShare)
		if o.PaymentMethod == order.MethodCOD {
			sum.CODOrders++
		}
		if o.Status == order.StatusDelivered {
			sum.DeliveredOrders++
			sum.NetRevenue = sum.NetRevenue.Add(alloc.NetRevenue)
		}
	}
	sum.OrderValueShare = sum.OrderValueShare.Round(2)
	sum.NetRevenue = sum.NetRevenue.Round(2)

	s.store(ctx, key, sum)
	return sum, nil
}

// Sales returns the per-day paid sales series for the trailing window.
func (s *Service) Sales(ctx context.Context, days int) ([]DailySales, error) {
	if s == nil || s.Orders == nil {
		return nil, fmt.Errorf("report service not configured")
	}
	if days <= 0 {
		days = s.DefaultRange
	}
	if days <= 0 {
		days = 30
	}
	to := s.now()
	from := to.AddDate(0, 0, -days)

	key := cacheKey("rp", s.version(ctx), "sales", days, to.Format(day))
	var cached []DailySales
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	orders, err := s.Orders.ListWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}
	defer observeBuild("sales", time.Now())

	buckets := make(map[string]*DailySales, days)
	for _, o := range orders {
		if o.PaymentStatus != order.PaymentPaid {
			continue
		}
		d := o.CreatedAt.Format(day)
		b, ok := buckets[d]
		if !ok {
			b = &DailySales{Date: d, GrossValue: decimal.Zero}
			buckets[d] = b
		}
		b.OrderCount++
		b.GrossValue = b.GrossValue.Add(o.TotalAmount)
	}

	series := make([]DailySales, 0, days)
	for cursor := from; cursor.Before(to); cursor = cursor.AddDate(0, 0, 1) {
		d := cursor.Format(day)
		if b, ok := buckets[d]; ok {
			b.GrossValue = b.GrossValue.Round(2)
			series = append(series, *b)
			continue
		}
		series = append(series, DailySales{Date: d, GrossValue: decimal.Zero})
	}

	s.store(ctx, key, series)
	return series, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		countCache("miss")
		return false
	}
	if json.Unmarshal(data, dst) != nil {
		countCache("miss")
		return false
	}
	countCache("hit")
	return true
}

func countCache(result string) {
	if obs.ReportCacheTotal != nil {
		obs.ReportCacheTotal.WithLabelValues(result).Inc()
	}
}

func observeBuild(report string, start time.Time) {
	if obs.ReportBuildLatency != nil {
		obs.ReportBuildLatency.WithLabelValues(report).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
