package http

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
)

type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}

type CatalogAdmin interface {
	UpdatePrice(ctx context.Context, id string, unitPrice int64) error
	Restock(ctx context.Context, id string, quantity int, reason string) (*domain.LedgerEntry, error)
	Reconcile(ctx context.Context) ([]domain.StockDrift, error)
}

type Checkouter interface {
	Checkout(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error)
}

type OrderReader interface {
	ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus) (*domain.Order, error)
}

type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, signature string) (*service.WebhookResult, error)
}
