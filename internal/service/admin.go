package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

type AdminService struct {
	orders OrderStore
	log    *slog.Logger
}

func NewAdminService(orders OrderStore, log *slog.Logger) *AdminService {
	return &AdminService{orders: orders, log: log}
}

// UpdateStatus applies an administrative transition. PAID is reserved for
// payment confirmation and is never accepted here.
func (s *AdminService) UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus) (*domain.Order, error) {
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	if order.Status.IsTerminal() {
		s.log.InfoContext(ctx, "status update on closed order rejected",
			slog.String("order_id", orderID),
			slog.String("status", order.Status.String()),
			slog.String("target", target.String()))
		return nil, &TransitionError{From: order.Status, To: target}
	}
	if target == domain.OrderStatusPaid || !order.Status.CanTransitionTo(target) {
		return nil, &TransitionError{From: order.Status, To: target}
	}

	err = s.orders.UpdateOrderStatus(ctx, orderID, order.Status, target)
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		return nil, ErrStatusConflict
	case errors.Is(err, repository.ErrOrderNotFound):
		return nil, ErrOrderNotFound
	case err != nil:
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}

	s.log.InfoContext(ctx, "order status updated",
		slog.String("order_id", orderID),
		slog.String("from", order.Status.String()),
		slog.String("to", target.String()))

	updated, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order %s: %w", orderID, err)
	}
	return updated, nil
}
