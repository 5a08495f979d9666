// Package notification delivers order confirmations to customers.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrMissingRecipient = errors.New("confirmation has no recipient")

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, ev domain.OrderPaidEvent) error
}

// LogNotifier writes confirmations to the structured log. It stands in for the
// mail relay, which lives outside this service.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendOrderConfirmation(ctx context.Context, ev domain.OrderPaidEvent) error {
	if ev.CustomerEmail == "" {
		return fmt.Errorf("order %s: %w", ev.OrderID, ErrMissingRecipient)
	}

	lines := make([]string, 0, len(ev.Items))
	for _, item := range ev.Items {
		lines = append(lines, fmt.Sprintf("%d x %s @ %s", item.Quantity, item.ProductName, FormatAmount(item.UnitPrice, ev.Currency)))
	}

	n.log.InfoContext(ctx, "order confirmation sent",
		slog.String("order_id", ev.OrderID),
		slog.String("to", ev.CustomerEmail),
		slog.String("total", FormatAmount(ev.Total, ev.Currency)),
		slog.String("items", strings.Join(lines, "; ")))
	return nil
}

// FormatAmount renders minor units as a fixed two-decimal amount, e.g. "49.98 USD".
func FormatAmount(minor int64, currency string) string {
	return decimal.New(minor, -2).StringFixed(2) + " " + strings.ToUpper(currency)
}
