package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/domain"
)

const orderColumns = `id, customer_id, customer_email, status, subtotal, total, currency, gateway_payment_id,
	shipping_address, billing_address, is_paid, paid_at, created_at, updated_at`

// CreateOrder writes the order header and all of its items in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	shipping, err := marshalAddress(order.ShippingAddress)
	if err != nil {
		return err
	}
	billing, err := marshalAddress(order.BillingAddress)
	if err != nil {
		return err
	}

	now := r.now()
	order.CreatedAt = now
	order.UpdatedAt = now

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO orders (id, customer_id, customer_email, status, subtotal, total, currency,
		              gateway_payment_id, shipping_address, billing_address, is_paid, paid_at, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL, $12, $12)`

		_, insertErr := tx.ExecContext(ctx, query,
			order.ID,
			order.CustomerID,
			order.CustomerEmail,
			order.Status,
			order.Subtotal,
			order.Total,
			order.Currency,
			order.GatewayPaymentID,
			shipping,
			billing,
			order.IsPaid,
			now)
		if insertErr != nil {
			if isUniqueViolation(insertErr) {
				return ErrDuplicatePaymentID
			}
			return fmt.Errorf("insert order: %w", insertErr)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			_, itemErr := tx.ExecContext(ctx,
				`INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, line_total)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.LineTotal)
			if itemErr != nil {
				return fmt.Errorf("insert order item %s: %w", item.ProductID, itemErr)
			}
		}
		return nil
	})
}

func (r *Repository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *Repository) GetOrderByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE gateway_payment_id = $1`, paymentID)
}

func (r *Repository) getOrder(ctx context.Context, query string, arg string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order from one status to another only if it is
// still in the expected status.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, r.now(), id, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := r.GetOrderByID(ctx, id); err != nil {
		return err
	}
	return ErrStatusConflict
}

// attachItems loads items for the given orders. Callers must not hold open rows.
func (r *Repository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]any, 0, len(orders))
	for i, o := range orders {
		o.Items = make([]domain.OrderItem, 0)
		byID[o.ID] = o
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, o.ID)
	}

	query := `SELECT id, order_id, product_id, product_name, quantity, unit_price, line_total
	          FROM order_items WHERE order_id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY order_id, product_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var (
		order    domain.Order
		shipping sql.NullString
		billing  sql.NullString
		paidAt   sql.NullTime
	)
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.CustomerEmail,
		&order.Status,
		&order.Subtotal,
		&order.Total,
		&order.Currency,
		&order.GatewayPaymentID,
		&shipping,
		&billing,
		&order.IsPaid,
		&paidAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.ShippingAddress, err = unmarshalAddress(shipping); err != nil {
		return nil, err
	}
	if order.BillingAddress, err = unmarshalAddress(billing); err != nil {
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}
	return &order, nil
}

func marshalAddress(a *domain.Address) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal address: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalAddress(s sql.NullString) (*domain.Address, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var a domain.Address
	if err := json.Unmarshal([]byte(s.String), &a); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	return &a, nil
}
