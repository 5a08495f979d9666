package http

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
)

type CatalogMock struct {
	products []*domain.Product
	err      error
	prices   map[string]int64
	restock  *domain.LedgerEntry
	drifts   []domain.StockDrift
}

func (m *CatalogMock) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, service.ErrProductNotFound
}

func (m *CatalogMock) ListProducts(context.Context) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m *CatalogMock) UpdatePrice(_ context.Context, id string, unitPrice int64) error {
	if m.err != nil {
		return m.err
	}
	if m.prices == nil {
		m.prices = make(map[string]int64)
	}
	m.prices[id] = unitPrice
	return nil
}

func (m *CatalogMock) Restock(_ context.Context, id string, quantity int, reason string) (*domain.LedgerEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.LedgerEntry{ID: "led-1", ProductID: id, Delta: quantity, Reason: reason}, nil
}

func (m *CatalogMock) Reconcile(context.Context) ([]domain.StockDrift, error) {
	return m.drifts, m.err
}

type CheckoutMock struct {
	result   *domain.CheckoutResult
	err      error
	received *domain.CheckoutRequest
}

func (m *CheckoutMock) Checkout(_ context.Context, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	m.received = req
	return m.result, m.err
}

type OrdersMock struct {
	page     *domain.OrderPage
	order    *domain.Order
	stats    *domain.OrderStats
	err      error
	filter   domain.OrderFilter
	updateTo domain.OrderStatus
}

func (m *OrdersMock) ListOrders(_ context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	m.filter = filter
	return m.page, m.err
}

func (m *OrdersMock) GetOrder(context.Context, string) (*domain.Order, error) {
	return m.order, m.err
}

func (m *OrdersMock) Stats(context.Context) (*domain.OrderStats, error) {
	return m.stats, m.err
}

func (m *OrdersMock) UpdateStatus(_ context.Context, _ string, target domain.OrderStatus) (*domain.Order, error) {
	m.updateTo = target
	if m.err != nil {
		return nil, m.err
	}
	o := *m.order
	o.Status = target
	return &o, nil
}

type WebhookMock struct {
	result    *service.WebhookResult
	err       error
	payload   []byte
	signature string
}

func (m *WebhookMock) Handle(_ context.Context, payload []byte, signature string) (*service.WebhookResult, error) {
	m.payload = payload
	m.signature = signature
	return m.result, m.err
}
