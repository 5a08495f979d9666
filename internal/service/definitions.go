package service

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type CatalogStore interface {
	ProductReader
	ListProducts(ctx context.Context, activeOnly bool) ([]*domain.Product, error)
	UpdatePrice(ctx context.Context, id string, unitPrice int64) error
	Restock(ctx context.Context, id string, quantity int, reason string) (*domain.LedgerEntry, error)
	ReconcileInventory(ctx context.Context) ([]domain.StockDrift, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)
	MarkOrderPaid(ctx context.Context, order *domain.Order) error
	UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error)
	OrderStats(ctx context.Context) (*domain.OrderStats, error)
}
