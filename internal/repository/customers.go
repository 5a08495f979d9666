package repository

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// FindOrCreateCustomer resolves a customer by email, inserting one if absent.
// Concurrent callers with the same email converge on a single row.
func (r *Repository) FindOrCreateCustomer(ctx context.Context, email, firstName, lastName string) (*domain.Customer, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, email, first_name, last_name, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), email, firstName, lastName, r.now())
	if err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	var c domain.Customer
	err = r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name FROM customers WHERE email = $1`, email).
		Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName)
	if err != nil {
		return nil, fmt.Errorf("query customer by email: %w", err)
	}
	return &c, nil
}
