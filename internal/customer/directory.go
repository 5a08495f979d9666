// Package customer resolves checkout emails to customer records.
package customer

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type Directory interface {
	FindOrCreateByEmail(ctx context.Context, email, firstName, lastName string) (*domain.Customer, error)
}

type customerStore interface {
	FindOrCreateCustomer(ctx context.Context, email, firstName, lastName string) (*domain.Customer, error)
}

// SQLDirectory keeps customers in the orders database.
type SQLDirectory struct {
	store customerStore
}

func NewSQLDirectory(store customerStore) *SQLDirectory {
	return &SQLDirectory{store: store}
}

func (d *SQLDirectory) FindOrCreateByEmail(ctx context.Context, email, firstName, lastName string) (*domain.Customer, error) {
	return d.store.FindOrCreateCustomer(ctx, email, firstName, lastName)
}
