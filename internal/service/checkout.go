package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/customer"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/google/uuid"
)

type CheckoutService struct {
	pricer    *Pricer
	customers customer.Directory
	gateway   payment.Gateway
	orders    OrderStore
	currency  string
	timeout   time.Duration
	log       *slog.Logger
	metrics   *metrics.Registry
}

type CheckoutOptions struct {
	Currency string
	Timeout  time.Duration
}

func NewCheckoutService(
	pricer *Pricer,
	customers customer.Directory,
	gateway payment.Gateway,
	orders OrderStore,
	opts CheckoutOptions,
	log *slog.Logger,
	m *metrics.Registry,
) *CheckoutService {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &CheckoutService{
		pricer:    pricer,
		customers: customers,
		gateway:   gateway,
		orders:    orders,
		currency:  opts.Currency,
		timeout:   opts.Timeout,
		log:       log,
		metrics:   m,
	}
}

// Checkout prices the cart, creates a payment intent and then records a PENDING
// order bound to the intent. No order exists unless the intent was created.
func (s *CheckoutService) Checkout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	result, err := s.checkout(ctx, req)
	s.metrics.Checkouts.WithLabelValues(checkoutOutcome(err)).Inc()
	return result, err
}

func (s *CheckoutService) checkout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	cart, err := s.pricer.PriceCart(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	cust, err := s.customers.FindOrCreateByEmail(ctx, email, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	orderID := uuid.NewString()
	intent, err := s.createIntent(ctx, orderID, cart.Total, cust)
	if err != nil {
		s.log.WarnContext(ctx, "payment intent creation failed",
			slog.String("customer_email", email),
			slog.Int64("amount", cart.Total),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentIntentCreationFailed, err)
	}

	order := &domain.Order{
		ID:               orderID,
		CustomerID:       cust.ID,
		CustomerEmail:    cust.Email,
		Status:           domain.OrderStatusPending,
		Subtotal:         cart.Subtotal,
		Total:            cart.Total,
		Currency:         strings.ToUpper(s.currency),
		GatewayPaymentID: intent.ID,
		ShippingAddress:  req.ShippingAddress,
		BillingAddress:   req.BillingAddress,
		Items:            cart.Items,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.log.ErrorContext(ctx, "order not recorded for created payment intent",
			slog.String("payment_id", intent.ID),
			slog.String("order_id", orderID),
			slog.Any("error", err))
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.InfoContext(ctx, "checkout created pending order",
		slog.String("order_id", order.ID),
		slog.String("payment_id", intent.ID),
		slog.Int64("total", order.Total))

	return &domain.CheckoutResult{Order: order, ClientSecret: intent.ClientSecret}, nil
}

func (s *CheckoutService) createIntent(ctx context.Context, orderID string, amount int64, cust *domain.Customer) (*payment.Intent, error) {
	intentCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.gateway.CreateIntent(intentCtx, payment.IntentRequest{
		AmountMinor: amount,
		Currency:    s.currency,
		Metadata: map[string]string{
			"customer_email": cust.Email,
			"customer_id":    cust.ID,
			"order_ref":      orderID,
		},
		IdempotencyKey: orderID,
	})
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func checkoutOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, ErrPaymentIntentCreationFailed):
		return "gateway_error"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrProductNotFound), errors.Is(err, ErrProductInactive), errors.Is(err, ErrAmountOutOfRange):
		return "invalid"
	default:
		return "error"
	}
}
