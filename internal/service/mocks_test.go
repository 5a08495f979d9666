package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
)

// MockCatalogStore implements CatalogStore for testing
type MockCatalogStore struct {
	mu        sync.Mutex
	Products  map[string]*domain.Product
	GetCalls  int
	GetErr    error
	Drifts    []domain.StockDrift
	Restocked []domain.LedgerEntry
}

func newMockCatalog(products ...*domain.Product) *MockCatalogStore {
	m := &MockCatalogStore{Products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MockCatalogStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockCatalogStore) ListProducts(_ context.Context, activeOnly bool) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Product, 0, len(m.Products))
	for _, p := range m.Products {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MockCatalogStore) UpdatePrice(_ context.Context, id string, unitPrice int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.UnitPrice = unitPrice
	return nil
}

func (m *MockCatalogStore) Restock(_ context.Context, id string, quantity int, reason string) (*domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	p.Stock += quantity
	entry := domain.LedgerEntry{ID: "led-1", ProductID: id, Delta: quantity, Reason: reason, CreatedAt: time.Now()}
	m.Restocked = append(m.Restocked, entry)
	return &entry, nil
}

func (m *MockCatalogStore) ReconcileInventory(_ context.Context) ([]domain.StockDrift, error) {
	return m.Drifts, nil
}

// MockOrderStore implements OrderStore for testing. MarkOrderPaid behaves like
// the database transaction: claim first, then all-or-nothing stock decrement.
type MockOrderStore struct {
	mu        sync.Mutex
	Orders    map[string]*domain.Order
	Catalog   *MockCatalogStore
	CreateErr error
	MarkErr   error
	UpdateErr error
	MarkCalls int
	Events    []domain.OrderPaidEvent
}

func newMockOrders(catalog *MockCatalogStore) *MockOrderStore {
	return &MockOrderStore{Orders: make(map[string]*domain.Order), Catalog: catalog}
}

func (m *MockOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, o := range m.Orders {
		if o.GatewayPaymentID == order.GatewayPaymentID {
			return repository.ErrDuplicatePaymentID
		}
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	m.Orders[order.ID] = &cp
	return nil
}

func (m *MockOrderStore) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderStore) GetOrderByPaymentID(_ context.Context, paymentID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.Orders {
		if o.GatewayPaymentID == paymentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *MockOrderStore) MarkOrderPaid(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkCalls++
	if m.MarkErr != nil {
		return m.MarkErr
	}
	stored, ok := m.Orders[order.ID]
	if !ok || stored.Status != domain.OrderStatusPending {
		return repository.ErrOrderNotPending
	}

	m.Catalog.mu.Lock()
	defer m.Catalog.mu.Unlock()
	for _, item := range order.Items {
		if p := m.Catalog.Products[item.ProductID]; p == nil || p.Stock < item.Quantity {
			return repository.ErrInsufficientStock
		}
	}
	for _, item := range order.Items {
		m.Catalog.Products[item.ProductID].Stock -= item.Quantity
	}

	now := time.Now()
	stored.Status = domain.OrderStatusPaid
	stored.IsPaid = true
	stored.PaidAt = &now
	order.Status = stored.Status
	order.IsPaid = true
	order.PaidAt = &now
	m.Events = append(m.Events, domain.NewOrderPaidEvent(stored))
	return nil
}

func (m *MockOrderStore) UpdateOrderStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Status != from {
		return repository.ErrStatusConflict
	}
	o.Status = to
	return nil
}

func (m *MockOrderStore) ListOrders(_ context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := &domain.OrderPage{Orders: make([]*domain.Order, 0)}
	for _, o := range m.Orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		page.Orders = append(page.Orders, o)
	}
	page.Total = len(page.Orders)
	return page, nil
}

func (m *MockOrderStore) OrderStats(_ context.Context) (*domain.OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.OrderStats{ByStatus: make(map[domain.OrderStatus]int)}
	for _, o := range m.Orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		if o.Status.IsPaid() {
			stats.PaidRevenue += o.Total
		}
	}
	return stats, nil
}

func (m *MockOrderStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Orders)
}

// MockDirectory implements customer.Directory for testing
type MockDirectory struct {
	Err       error
	Customers map[string]*domain.Customer
}

func (m *MockDirectory) FindOrCreateByEmail(_ context.Context, email, firstName, lastName string) (*domain.Customer, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Customers == nil {
		m.Customers = make(map[string]*domain.Customer)
	}
	if c, ok := m.Customers[email]; ok {
		return c, nil
	}
	c := &domain.Customer{ID: "cust-" + email, Email: email, FirstName: firstName, LastName: lastName}
	m.Customers[email] = c
	return c, nil
}

// MockFulfiller implements Fulfiller for testing
type MockFulfiller struct {
	Outcome FulfillmentOutcome
	Err     error
	Calls   []string
}

func (m *MockFulfiller) Fulfill(_ context.Context, paymentID string) (FulfillmentOutcome, error) {
	m.Calls = append(m.Calls, paymentID)
	return m.Outcome, m.Err
}

// MockMarker implements cache.EventMarker for testing
type MockMarker struct {
	mu      sync.Mutex
	Marked  map[string]bool
	SeenErr error
}

func (m *MockMarker) Seen(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SeenErr != nil {
		return false, m.SeenErr
	}
	return m.Marked[eventID], nil
}

func (m *MockMarker) Mark(_ context.Context, eventID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Marked == nil {
		m.Marked = make(map[string]bool)
	}
	m.Marked[eventID] = true
	return nil
}

// MockProductCache implements cache.ProductCache for testing
type MockProductCache struct {
	mu      sync.Mutex
	Entries map[string]*domain.Product
	Deleted []string
}

func (m *MockProductCache) Get(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Entries[id]; ok {
		return p, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockProductCache) Set(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Entries == nil {
		m.Entries = make(map[string]*domain.Product)
	}
	m.Entries[p.ID] = p
	return nil
}

func (m *MockProductCache) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Entries, id)
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockProductCache) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Entries[id]
	return ok
}

// failingGateway returns err from CreateIntent and rejects every signature.
type failingGateway struct {
	err error
}

func (g failingGateway) CreateIntent(context.Context, payment.IntentRequest) (*payment.Intent, error) {
	return nil, g.err
}

func (g failingGateway) VerifySignature([]byte, string) (*payment.Event, error) {
	return nil, payment.ErrInvalidSignature
}
