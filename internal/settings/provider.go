package settings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by stores when a key has no stored value. The
// provider translates it into the caller-supplied default.
var ErrNotFound = errors.New("settings: key not found")

// Store is the persistence contract behind the provider. Implementations
// return ErrNotFound for absent keys and raw string values otherwise.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
}

// Provider exposes typed access to named settings with caller-supplied
// defaults. Values are cached in-process for a short TTL so hot paths such as
// checkout do not hit the store on every request.
type Provider struct {
	Store Store
	TTL   time.Duration
	Now   func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value   string
	found   bool
	expires time.Time
}

// New constructs a Provider over the given store.
func New(store Store, ttl time.Duration) *Provider {
	return &Provider{Store: store, TTL: ttl, cache: make(map[string]cacheEntry)}
}

func (p *Provider) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// String returns the raw value for key, or def when the key is absent or the
// store is unreachable.
func (p *Provider) String(ctx context.Context, key, def string) string {
	value, found := p.lookup(ctx, key)
	if !found {
		return def
	}
	return value
}

// Decimal returns the value for key parsed as a fixed-point decimal. Absent
// keys and unparseable values fall back to def.
func (p *Provider) Decimal(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal {
	value, found := p.lookup(ctx, key)
	if !found {
		return def
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

// Bool returns the value for key coerced to a boolean. Recognised true values
// are "1", "true", "yes" and "on"; recognised false values are "0", "false",
// "no", "off" and empty. Anything else falls back to def.
func (p *Provider) Bool(ctx context.Context, key string, def bool) bool {
	value, found := p.lookup(ctx, key)
	if !found {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off", "":
		return false
	default:
		return def
	}
}

// Invalidate drops any cached value for key. Administrative tooling calls
// this after writing a setting.
func (p *Provider) Invalidate(key string) {
	p.mu.Lock()
	delete(p.cache, key)
	p.mu.Unlock()
}

func (p *Provider) lookup(ctx context.Context, key string) (string, bool) {
	if p == nil || p.Store == nil {
		return "", false
	}
	now := p.now()

	p.mu.RLock()
	entry, ok := p.cache[key]
	p.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.value, entry.found
	}

	value, err := p.Store.Get(ctx, key)
	found := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		// Store unreachable: keep serving the stale entry if we have one.
		if ok {
			return entry.value, entry.found
		}
		return "", false
	}

	if p.TTL > 0 {
		p.mu.Lock()
		if p.cache == nil {
			p.cache = make(map[string]cacheEntry)
		}
		p.cache[key] = cacheEntry{value: value, found: found, expires: now.Add(p.TTL)}
		p.mu.Unlock()
	}
	return value, found
}
