package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type stubStore struct {
	values map[string]string
	err    error
	calls  int
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func TestProviderDefaults(t *testing.T) {
	p := New(&stubStore{values: map[string]string{}}, time.Minute)
	ctx := context.Background()

	if got := p.String(ctx, "missing", "fallback"); got != "fallback" {
		t.Fatalf("String default: %q", got)
	}
	def := decimal.RequireFromString("5.00")
	if got := p.Decimal(ctx, "missing", def); !got.Equal(def) {
		t.Fatalf("Decimal default: %s", got)
	}
	if !p.Bool(ctx, "missing", true) {
		t.Fatal("Bool default not honoured")
	}
}

func TestProviderCachesWithinTTL(t *testing.T) {
	store := &stubStore{values: map[string]string{"tax_rate": "7.50"}}
	p := New(store, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got := p.Decimal(ctx, "tax_rate", decimal.Zero)
		if got.StringFixed(2) != "7.50" {
			t.Fatalf("read %d: %s", i, got)
		}
	}
	if store.calls != 1 {
		t.Fatalf("expected a single store call, got %d", store.calls)
	}
}

func TestProviderRefetchesAfterTTL(t *testing.T) {
	store := &stubStore{values: map[string]string{"tax_rate": "7.50"}}
	now := time.Now()
	p := New(store, time.Minute)
	p.Now = func() time.Time { return now }
	ctx := context.Background()

	p.Decimal(ctx, "tax_rate", decimal.Zero)
	now = now.Add(2 * time.Minute)
	store.values["tax_rate"] = "8.00"
	got := p.Decimal(ctx, "tax_rate", decimal.Zero)
	if got.StringFixed(2) != "8.00" {
		t.Fatalf("expected refreshed value, got %s", got)
	}
	if store.calls != 2 {
		t.Fatalf("expected two store calls, got %d", store.calls)
	}
}

func TestProviderServesStaleOnStoreError(t *testing.T) {
	store := &stubStore{values: map[string]string{"cod_enabled": "true"}}
	now := time.Now()
	p := New(store, time.Minute)
	p.Now = func() time.Time { return now }
	ctx := context.Background()

	if !p.Bool(ctx, "cod_enabled", false) {
		t.Fatal("initial read")
	}

	now = now.Add(2 * time.Minute)
	store.err = errors.New("connection refused")
	if !p.Bool(ctx, "cod_enabled", false) {
		t.Fatal("expected stale value while store is down")
	}
}

func TestProviderErrorWithoutCacheFallsBack(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	p := New(store, time.Minute)
	if got := p.String(context.Background(), "tax_rate", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestProviderInvalidate(t *testing.T) {
	store := &stubStore{values: map[string]string{"coupons_enabled": "true"}}
	p := New(store, time.Minute)
	ctx := context.Background()

	p.Bool(ctx, "coupons_enabled", false)
	store.values["coupons_enabled"] = "false"
	p.Invalidate("coupons_enabled")
	if p.Bool(ctx, "coupons_enabled", true) {
		t.Fatal("expected refreshed value after invalidation")
	}
	if store.calls != 2 {
		t.Fatalf("expected two store calls, got %d", store.calls)
	}
}

func TestBoolCoercion(t *testing.T) {
	store := &stubStore{values: map[string]string{}}
	p := New(store, 0)
	ctx := context.Background()

	cases := map[string]bool{
		"1": true, "true": true, "YES": true, "on": true,
		"0": false, "false": false, "no": false, "off": false, "": false,
	}
	for raw, want := range cases {
		store.values["flag"] = raw
		if got := p.Bool(ctx, "flag", !want); got != want {
			t.Fatalf("value %q: expected %v", raw, got)
		}
	}
	store.values["flag"] = "maybe"
	if !p.Bool(ctx, "flag", true) {
		t.Fatal("unrecognised value should fall back to default")
	}
}

func TestDecimalUnparseableFallsBack(t *testing.T) {
	store := &stubStore{values: map[string]string{"tax_rate": "five percent"}}
	p := New(store, 0)
	def := decimal.RequireFromString("5.00")
	if got := p.Decimal(context.Background(), "tax_rate", def); !got.Equal(def) {
		t.Fatalf("expected default, got %s", got)
	}
}
