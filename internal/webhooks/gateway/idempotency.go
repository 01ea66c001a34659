package gatewaywebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type deliveryStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookKey(provider, deliveryID string) string
}

// DeliveryGuard remembers provider delivery ids so retried deliveries skip the
// confirmatory provider read. It is an optimization only; the ledger
// comparison in Service is what keeps replays write-free.
type DeliveryGuard struct {
	store    deliveryStore
	ttl      time.Duration
	provider string
}

func NewDeliveryGuard(store deliveryStore, ttl time.Duration, provider string) (*DeliveryGuard, error) {
	if store == nil {
		return nil, errors.New("delivery store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	return &DeliveryGuard{store: store, ttl: ttl, provider: provider}, nil
}

// CheckAndMark reports whether deliveryID was already marked, marking it if not.
func (g *DeliveryGuard) CheckAndMark(ctx context.Context, deliveryID string) (bool, error) {
	if deliveryID == "" {
		return false, errors.New("delivery id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.WebhookKey(g.provider, deliveryID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set delivery key: %w", err)
	}
	return !set, nil
}

// Release forgets deliveryID so a provider retry is processed again.
func (g *DeliveryGuard) Release(ctx context.Context, deliveryID string) error {
	if deliveryID == "" {
		return errors.New("delivery id is required")
	}
	return g.store.Del(ctx, g.store.WebhookKey(g.provider, deliveryID))
}
