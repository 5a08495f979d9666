package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/repository"
)

type FulfillmentOutcome string

const (
	OutcomePaid      FulfillmentOutcome = "paid"
	OutcomeDuplicate FulfillmentOutcome = "duplicate"
)

// ProductInvalidator evicts cached product views after their stock moved.
type ProductInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...string)
}

type FulfillmentService struct {
	orders   OrderStore
	products ProductInvalidator
	log      *slog.Logger
	metrics  *metrics.Registry
}

// NewFulfillmentService builds the service. products may be nil when no
// product cache is in use.
func NewFulfillmentService(orders OrderStore, products ProductInvalidator, log *slog.Logger, m *metrics.Registry) *FulfillmentService {
	return &FulfillmentService{orders: orders, products: products, log: log, metrics: m}
}

// Fulfill applies a confirmed payment to its order exactly once. Repeated calls
// for an already paid order report OutcomeDuplicate and change nothing.
//
// Business failures are ErrUnknownPayment, ErrOrderNotPayable and
// ErrInsufficientStock; the order keeps its last consistent state for each.
func (s *FulfillmentService) Fulfill(ctx context.Context, paymentID string) (FulfillmentOutcome, error) {
	outcome, err := s.fulfill(ctx, paymentID)
	label := string(outcome)
	switch {
	case errors.Is(err, ErrUnknownPayment):
		label = "unknown_payment"
	case errors.Is(err, ErrOrderNotPayable):
		label = "not_payable"
	case errors.Is(err, ErrInsufficientStock):
		label = "insufficient_stock"
	case err != nil:
		label = "error"
	}
	s.metrics.Fulfillments.WithLabelValues(label).Inc()
	return outcome, err
}

func (s *FulfillmentService) fulfill(ctx context.Context, paymentID string) (FulfillmentOutcome, error) {
	log := s.log.With(slog.String("payment_id", paymentID))

	order, err := s.orders.GetOrderByPaymentID(ctx, paymentID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		log.ErrorContext(ctx, "payment succeeded for unknown order")
		return "", ErrUnknownPayment
	}
	if err != nil {
		return "", fmt.Errorf("load order for payment %s: %w", paymentID, err)
	}
	log = log.With(slog.String("order_id", order.ID))

	dup, err := s.checkAlreadyHandled(ctx, log, order.Status)
	if err != nil {
		return "", err
	}
	if dup {
		return OutcomeDuplicate, nil
	}

	err = s.orders.MarkOrderPaid(ctx, order)
	switch {
	case err == nil:
		log.InfoContext(ctx, "order paid", slog.Int64("total", order.Total), slog.Int("items", len(order.Items)))
		if s.products != nil {
			ids := make([]string, 0, len(order.Items))
			for _, item := range order.Items {
				ids = append(ids, item.ProductID)
			}
			s.products.Invalidate(ctx, ids...)
		}
		return OutcomePaid, nil

	case errors.Is(err, repository.ErrOrderNotPending):
		// another delivery or an admin action got there first
		current, getErr := s.orders.GetOrderByID(ctx, order.ID)
		if getErr != nil {
			return "", fmt.Errorf("reload order %s: %w", order.ID, getErr)
		}
		dup, err := s.checkAlreadyHandled(ctx, log, current.Status)
		if err != nil {
			return "", err
		}
		if dup {
			return OutcomeDuplicate, nil
		}
		return "", fmt.Errorf("order %s left pending after lost claim", order.ID)

	case errors.Is(err, repository.ErrInsufficientStock):
		log.ErrorContext(ctx, "paid order cannot be fulfilled, stock exhausted; left pending for manual resolution",
			slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", ErrInsufficientStock, err)

	default:
		return "", fmt.Errorf("mark order %s paid: %w", order.ID, err)
	}
}

// checkAlreadyHandled reports true for orders that already reached PAID or beyond,
// and ErrOrderNotPayable for cancelled ones.
func (s *FulfillmentService) checkAlreadyHandled(ctx context.Context, log *slog.Logger, status domain.OrderStatus) (bool, error) {
	switch {
	case status.IsPaid():
		log.InfoContext(ctx, "duplicate payment confirmation ignored", slog.String("status", status.String()))
		return true, nil
	case status == domain.OrderStatusCancelled:
		log.ErrorContext(ctx, "payment succeeded for cancelled order")
		return false, ErrOrderNotPayable
	}
	return false, nil
}
