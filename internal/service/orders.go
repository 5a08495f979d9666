package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

type OrderQueryService struct {
	orders   OrderStore
	currency string
}

func NewOrderQueryService(orders OrderStore, currency string) *OrderQueryService {
	return &OrderQueryService{orders: orders, currency: strings.ToUpper(currency)}
}

func (s *OrderQueryService) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.orders.ListOrders(ctx, filter)
}

func (s *OrderQueryService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

func (s *OrderQueryService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats, err := s.orders.OrderStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Currency = s.currency
	return stats, nil
}
