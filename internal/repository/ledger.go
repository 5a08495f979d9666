package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

func insertLedgerEntry(ctx context.Context, tx *sql.Tx, e *domain.LedgerEntry) error {
	var orderID sql.NullString
	if e.OrderID != "" {
		orderID = sql.NullString{String: e.OrderID, Valid: true}
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_ledger (id, product_id, order_id, delta, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.ProductID, orderID, e.Delta, e.Reason, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// LedgerEntries returns the movements of one product, oldest first.
func (r *Repository) LedgerEntries(ctx context.Context, productID string) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, order_id, delta, reason, created_at
		 FROM inventory_ledger WHERE product_id = $1 ORDER BY created_at, id`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		var orderID sql.NullString
		if err := rows.Scan(&e.ID, &e.ProductID, &orderID, &e.Delta, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		e.OrderID = orderID.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// ReconcileInventory returns every product whose stock counter differs from
// initial stock plus the sum of its ledger deltas.
func (r *Repository) ReconcileInventory(ctx context.Context) ([]domain.StockDrift, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.initial_stock, p.stock, COALESCE(SUM(l.delta), 0)
		 FROM products p
		 LEFT JOIN inventory_ledger l ON l.product_id = p.id
		 GROUP BY p.id, p.initial_stock, p.stock
		 HAVING p.initial_stock + COALESCE(SUM(l.delta), 0) <> p.stock
		 ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("query reconciliation: %w", err)
	}
	defer rows.Close()

	drifts := make([]domain.StockDrift, 0)
	for rows.Next() {
		var d domain.StockDrift
		if err := rows.Scan(&d.ProductID, &d.InitialStock, &d.Stock, &d.LedgerSum); err != nil {
			return nil, fmt.Errorf("scan reconciliation row: %w", err)
		}
		drifts = append(drifts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return drifts, nil
}
