package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pasar/internal/allocation"
	"github.com/noah-isme/backend-pasar/internal/order"
	"github.com/noah-isme/backend-pasar/internal/report"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type stubOrders struct {
	orders      []order.Order
	listCalls   int
	vendorCalls int
}

func (s *stubOrders) ListWindow(_ context.Context, _, _ time.Time) ([]order.Order, error) {
	s.listCalls++
	return s.orders, nil
}

func (s *stubOrders) ListVendorWindow(_ context.Context, vendorID uuid.UUID, _, _ time.Time) ([]order.Order, error) {
	s.vendorCalls++
	var out []order.Order
	for _, o := range s.orders {
		for _, it := range o.Items {
			if it.VendorID != nil && *it.VendorID == vendorID {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func newService(t *testing.T, src *stubOrders) (*report.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &report.Service{
		Orders:       src,
		Engine:       allocation.Engine{},
		R:            client,
		TTL:          time.Minute,
		DefaultRange: 30,
	}, mr
}

// fixtureOrders builds a small window: one delivered COD order split across a
// vendor and the platform, one shipped online order, one cancelled order.
func fixtureOrders(vendorID uuid.UUID, at time.Time) []order.Order {
	vid := vendorID
	return []order.Order{
		{
			ID:            uuid.New(),
			Status:        order.StatusDelivered,
			PaymentMethod: order.MethodCOD,
			PaymentStatus: order.PaymentPaid,
			Subtotal:      dec("1000.00"),
			PlatformFee:   dec("20.00"),
			TaxAmount:     dec("50.00"),
			TotalAmount:   dec("1070.00"),
			CreatedAt:     at,
			Items: []order.Item{
				{VendorID: &vid, Quantity: 3, Price: dec("100")},
				{VendorID: nil, Quantity: 7, Price: dec("100")},
			},
		},
		{
			ID:            uuid.New(),
			Status:        order.StatusShipped,
			PaymentMethod: order.MethodUPI,
			PaymentStatus: order.PaymentPaid,
			Subtotal:      dec("500.00"),
			TotalAmount:   dec("500.00"),
			CreatedAt:     at,
			Items: []order.Item{
				{VendorID: &vid, Quantity: 5, Price: dec("100")},
			},
		},
		{
			ID:            uuid.New(),
			Status:        order.StatusCancelled,
			PaymentMethod: order.MethodCard,
			PaymentStatus: order.PaymentRefunded,
			Subtotal:      dec("900.00"),
			TotalAmount:   dec("900.00"),
			CreatedAt:     at,
			Items: []order.Item{
				{VendorID: &vid, Quantity: 9, Price: dec("100")},
			},
		},
	}
}

func TestAdminSummary(t *testing.T) {
	vendorID := uuid.New()
	src := &stubOrders{orders: fixtureOrders(vendorID, time.Now().Add(-time.Hour))}
	svc, _ := newService(t, src)
	from, to := svc.DefaultWindow()

	sum, err := svc.Admin(context.Background(), from, to)
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if sum.TotalOrders != 3 {
		t.Fatalf("total orders: %d", sum.TotalOrders)
	}
	// Cancelled order excluded from gross value: 1070 + 500.
	if got := sum.GrossOrderValue.StringFixed(2); got != "1570.00" {
		t.Fatalf("gross order value: %s", got)
	}
	if sum.CODOrders != 1 || sum.OnlineOrders != 1 {
		t.Fatalf("method counts: cod=%d online=%d", sum.CODOrders, sum.OnlineOrders)
	}
	if sum.DeliveredOrders != 1 {
		t.Fatalf("delivered orders: %d", sum.DeliveredOrders)
	}
	// Delivered order only: vendor share is 300/1000. Seller cut is the
	// vendor's fee share (6.00) plus tax share (15.00).
	if got := sum.SellerNetProfit.StringFixed(2); got != "21.00" {
		t.Fatalf("seller net profit: %s", got)
	}
	// Platform keeps its full order-value share: 1070 * 0.7.
	if got := sum.PlatformProductProfit.StringFixed(2); got != "749.00" {
		t.Fatalf("platform product profit: %s", got)
	}
	if got := sum.TotalNetRevenue.StringFixed(2); got != "770.00" {
		t.Fatalf("total net revenue: %s", got)
	}
}

func TestAdminSummaryCached(t *testing.T) {
	vendorID := uuid.New()
	src := &stubOrders{orders: fixtureOrders(vendorID, time.Now().Add(-time.Hour))}
	svc, _ := newService(t, src)
	from, to := svc.DefaultWindow()
	ctx := context.Background()

	first, err := svc.Admin(ctx, from, to)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Admin(ctx, from, to)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if src.listCalls != 1 {
		t.Fatalf("expected one list call, got %d", src.listCalls)
	}
	if !first.GrossOrderValue.Equal(second.GrossOrderValue) {
		t.Fatalf("cached summary drifted: %s vs %s", first.GrossOrderValue, second.GrossOrderValue)
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	vendorID := uuid.New()
	src := &stubOrders{orders: fixtureOrders(vendorID, time.Now().Add(-time.Hour))}
	svc, _ := newService(t, src)
	from, to := svc.DefaultWindow()
	ctx := context.Background()

	if _, err := svc.Admin(ctx, from, to); err != nil {
		t.Fatalf("first: %v", err)
	}
	svc.Invalidate(ctx)
	if _, err := svc.Admin(ctx, from, to); err != nil {
		t.Fatalf("second: %v", err)
	}
	if src.listCalls != 2 {
		t.Fatalf("expected recompute after invalidation, got %d list calls", src.listCalls)
	}
}

func TestVendorSummary(t *testing.T) {
	vendorID := uuid.New()
	src := &stubOrders{orders: fixtureOrders(vendorID, time.Now().Add(-time.Hour))}
	svc, _ := newService(t, src)
	from, to := svc.DefaultWindow()

	sum, err := svc.Vendor(context.Background(), vendorID, from, to)
	if err != nil {
		t.Fatalf("vendor: %v", err)
	}
	if sum.TotalOrders != 3 {
		t.Fatalf("total orders: %d", sum.TotalOrders)
	}
	// Non-cancelled share: 1070 * 0.3 + 500 * 1.0.
	if got := sum.OrderValueShare.StringFixed(2); got != "821.00" {
		t.Fatalf("order value share: %s", got)
	}
	if sum.DeliveredOrders != 1 {
		t.Fatalf("delivered orders: %d", sum.DeliveredOrders)
	}
	// Delivered only: 321 - 6 fee - 15 tax.
	if got := sum.NetRevenue.StringFixed(2); got != "300.00" {
		t.Fatalf("net revenue: %s", got)
	}
	if sum.CODOrders != 1 {
		t.Fatalf("cod orders: %d", sum.CODOrders)
	}
}

func TestSalesSeries(t *testing.T) {
	vendorID := uuid.New()
	now := time.Now()
	src := &stubOrders{orders: fixtureOrders(vendorID, now.Add(-26*time.Hour))}
	svc, _ := newService(t, src)
	svc.Now = func() time.Time { return now }

	series, err := svc.Sales(context.Background(), 7)
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(series))
	}

	wantDay := now.Add(-26 * time.Hour).Format("2006-01-02")
	var found bool
	for _, b := range series {
		if b.Date != wantDay {
			if b.OrderCount != 0 {
				t.Fatalf("unexpected orders on %s", b.Date)
			}
			continue
		}
		found = true
		// Paid only; the refunded cancelled order is excluded.
		if b.OrderCount != 2 {
			t.Fatalf("bucket count: %d", b.OrderCount)
		}
		if got := b.GrossValue.StringFixed(2); got != "1570.00" {
			t.Fatalf("bucket value: %s", got)
		}
	}
	if !found {
		t.Fatalf("bucket %s missing from series", wantDay)
	}
}
