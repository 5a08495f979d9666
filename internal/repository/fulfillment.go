package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// MarkOrderPaid is the fulfillment transaction. Within one database transaction it
// claims the order by flipping PENDING to PAID, decrements stock for every item
// with a stock >= quantity precondition, appends one ORDER ledger entry per item
// and queues an order.paid outbox event.
//
// ErrOrderNotPending means another delivery already claimed the order.
// ErrInsufficientStock means nothing was written and the order stays PENDING.
func (r *Repository) MarkOrderPaid(ctx context.Context, order *domain.Order) error {
	paidAt := r.now()

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, is_paid = TRUE, paid_at = $2, updated_at = $2
			 WHERE id = $3 AND status = $4`,
			domain.OrderStatusPaid, paidAt, order.ID, domain.OrderStatusPending)
		if err != nil {
			return fmt.Errorf("claim order: %w", err)
		}
		if err := expectOne(res, ErrOrderNotPending); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := decrementStock(ctx, tx, item, paidAt); err != nil {
				return err
			}
			entry := &domain.LedgerEntry{
				ID:        uuid.NewString(),
				ProductID: item.ProductID,
				OrderID:   order.ID,
				Delta:     -item.Quantity,
				Reason:    domain.LedgerReasonOrder,
				CreatedAt: paidAt,
			}
			if err := insertLedgerEntry(ctx, tx, entry); err != nil {
				return err
			}
		}

		paid := *order
		paid.Status = domain.OrderStatusPaid
		paid.IsPaid = true
		paid.PaidAt = &paidAt
		payload, err := json.Marshal(domain.NewOrderPaidEvent(&paid))
		if err != nil {
			return fmt.Errorf("marshal order paid event: %w", err)
		}
		return insertOutboxEvent(ctx, tx, order.ID, domain.EventTypeOrderPaid, payload, paidAt)
	})
	if err != nil {
		return err
	}

	order.Status = domain.OrderStatusPaid
	order.IsPaid = true
	order.PaidAt = &paidAt
	order.UpdatedAt = paidAt
	return nil
}

func decrementStock(ctx context.Context, tx *sql.Tx, item domain.OrderItem, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $1`,
		item.Quantity, at, item.ProductID)
	if err != nil {
		return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: product %s needs %d", ErrInsufficientStock, item.ProductID, item.Quantity)
	}
	return nil
}
