package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

type CatalogService struct {
	store CatalogStore
	cache cache.ProductCache
	sfg   singleflight.Group // Prevents cache stampede
	log   *slog.Logger

	// gen counts invalidations. A cache fill that started before the latest
	// invalidation is dropped.
	mu  sync.RWMutex
	gen uint64
}

func NewCatalogService(store CatalogStore, productCache cache.ProductCache, log *slog.Logger) *CatalogService {
	if productCache == nil {
		productCache = cache.Noop{}
	}
	return &CatalogService{store: store, cache: productCache, log: log}
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "product cache get failed", slog.Any("error", err))
		}

		gen := s.generation()
		product, err = s.store.GetProduct(ctx, id)
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, err
		}

		go s.fill(gen, product)
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.store.ListProducts(ctx, true)
}

// UpdatePrice changes the catalog price. Orders already placed keep the price
// they were created with.
func (s *CatalogService) UpdatePrice(ctx context.Context, id string, unitPrice int64) error {
	if unitPrice < 0 {
		return ErrInvalidPrice
	}
	err := s.store.UpdatePrice(ctx, id, unitPrice)
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("update price of %s: %w", id, err)
	}
	s.Invalidate(ctx, id)
	return nil
}

func (s *CatalogService) Restock(ctx context.Context, id string, quantity int, reason string) (*domain.LedgerEntry, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if reason == "" {
		reason = domain.LedgerReasonRestock
	}
	entry, err := s.store.Restock(ctx, id, quantity, reason)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("restock %s: %w", id, err)
	}
	s.Invalidate(ctx, id)
	return entry, nil
}

func (s *CatalogService) Reconcile(ctx context.Context) ([]domain.StockDrift, error) {
	return s.store.ReconcileInventory(ctx)
}

// Invalidate evicts cached products whose price or stock changed.
func (s *CatalogService) Invalidate(ctx context.Context, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	for _, id := range ids {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.WarnContext(ctx, "product cache invalidation failed", slog.String("product_id", id), slog.Any("error", err))
		}
	}
}

func (s *CatalogService) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *CatalogService) fill(gen uint64, product *domain.Product) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen != gen {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, product); err != nil {
		s.log.Warn("product cache set failed", slog.Any("error", err))
	}
}
