package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

const productColumns = `id, name, unit_price, stock, initial_stock, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.UnitPrice,
		&p.Stock,
		&p.InitialStock,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

// UpsertProduct inserts a product with its seed stock, or updates name, price and
// active flag of an existing one. Stock of an existing product only moves through
// the ledger.
func (r *Repository) UpsertProduct(ctx context.Context, p *domain.Product) error {
	now := r.now()
	query := `INSERT INTO products (id, name, unit_price, stock, initial_stock, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $4, $5, $6, $6)
	          ON CONFLICT (id) DO UPDATE SET
	              name = excluded.name,
	              unit_price = excluded.unit_price,
	              is_active = excluded.is_active,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.UnitPrice, p.Stock, p.IsActive, now)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *Repository) UpdatePrice(ctx context.Context, id string, unitPrice int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET unit_price = $1, updated_at = $2 WHERE id = $3`,
		unitPrice, r.now(), id)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	return expectOne(res, ErrProductNotFound)
}

// Restock adds quantity units and records the movement in the ledger atomically.
func (r *Repository) Restock(ctx context.Context, id string, quantity int, reason string) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:        uuid.NewString(),
		ProductID: id,
		Delta:     quantity,
		Reason:    reason,
		CreatedAt: r.now(),
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + $1, updated_at = $2 WHERE id = $3`,
			quantity, entry.CreatedAt, id)
		if err != nil {
			return fmt.Errorf("increment stock: %w", err)
		}
		if err := expectOne(res, ErrProductNotFound); err != nil {
			return err
		}
		return insertLedgerEntry(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
