package report

import (
	"context"

	"github.com/noah-isme/backend-pasar/internal/events"
)

// versionKey holds a monotonically increasing epoch embedded in every cache
// key. Bumping it orphans all cached reports at once without scanning keys;
// the orphans then age out through the TTL.
const versionKey = "rp:ver"

func (s *Service) version(ctx context.Context) int64 {
	if s.R == nil {
		return 0
	}
	v, err := s.R.Get(ctx, versionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

// Invalidate discards every cached report.
func (s *Service) Invalidate(ctx context.Context) {
	if s == nil || s.R == nil {
		return
	}
	_ = s.R.Incr(ctx, versionKey).Err()
}

// SubscribeInvalidation hooks the service to the domain events that make
// cached reports stale.
func (s *Service) SubscribeInvalidation(bus *events.Bus) {
	if s == nil || bus == nil {
		return
	}
	h := func(ctx context.Context, _ events.Event) { s.Invalidate(ctx) }
	bus.Subscribe(events.TopicOrderCreated, h)
	bus.Subscribe(events.TopicOrderStatusChanged, h)
	bus.Subscribe(events.TopicSettingsUpdated, h)
}
