package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type ProductCache interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID string) error
}

// EventMarker remembers webhook event ids that were already handled.
type EventMarker interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string, ttl time.Duration) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.Product, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, *domain.Product) error { return nil }
func (Noop) Delete(context.Context, string) error { return nil }
func (Noop) Seen(context.Context, string) (bool, error) { return false, nil }
func (Noop) Mark(context.Context, string, time.Duration) error { return nil }
