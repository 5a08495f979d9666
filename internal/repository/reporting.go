package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListOrders returns one page of orders, newest first, plus the total number of
// orders matching the filter.
func (r *Repository) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	pageArgs := append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2)

	orders, err := r.queryOrders(ctx, query, pageArgs...)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &domain.OrderPage{Orders: orders, Total: total, Limit: limit, Offset: offset}, nil
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

// OrderStats aggregates order counts per status and revenue of paid orders.
func (r *Repository) OrderStats(ctx context.Context) (*domain.OrderStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query order stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.OrderStats{ByStatus: make(map[domain.OrderStatus]int)}
	for rows.Next() {
		var (
			status domain.OrderStatus
			count  int
			sum    int64
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
		if status.IsPaid() {
			stats.PaidRevenue += sum
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return stats, nil
}
