package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(id, paymentID string, items ...domain.OrderItem) *domain.Order {
	o := &domain.Order{
		ID:               id,
		CustomerID:       "cust-1",
		CustomerEmail:    "buyer@example.com",
		Status:           domain.OrderStatusPending,
		Currency:         "USD",
		GatewayPaymentID: paymentID,
		Items:            items,
	}
	o.Subtotal = o.ItemsTotal()
	o.Total = o.Subtotal
	return o
}

func line(productID string, qty int, price int64) domain.OrderItem {
	return domain.OrderItem{ProductID: productID, Quantity: qty, UnitPrice: price, LineTotal: price * int64(qty)}
}

func newFulfillmentFixture(products ...*domain.Product) (*FulfillmentService, *MockOrderStore, *metrics.Registry) {
	orders := newMockOrders(newMockCatalog(products...))
	m := metrics.New()
	return NewFulfillmentService(orders, nil, logger.Discard(), m), orders, m
}

func TestFulfill_MarksOrderPaid(t *testing.T) {
	svc, orders, m := newFulfillmentFixture(product("P1", 2499, 10))
	require.NoError(t, orders.CreateOrder(context.Background(), pendingOrder("o-1", "pi_1", line("P1", 2, 2499))))

	outcome, err := svc.Fulfill(context.Background(), "pi_1")

	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)
	stored := orders.Orders["o-1"]
	assert.Equal(t, domain.OrderStatusPaid, stored.Status)
	assert.True(t, stored.IsPaid)
	assert.NotNil(t, stored.PaidAt)
	assert.Equal(t, 8, orders.Catalog.Products["P1"].Stock)
	require.Len(t, orders.Events, 1)
	assert.Equal(t, "o-1", orders.Events[0].OrderID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fulfillments.WithLabelValues("paid")))
}

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ids ...string) {
	r.ids = append(r.ids, ids...)
}

func TestFulfill_EvictsSoldProducts(t *testing.T) {
	orders := newMockOrders(newMockCatalog(product("P1", 2499, 10), product("P2", 500, 3)))
	products := &recordingInvalidator{}
	svc := NewFulfillmentService(orders, products, logger.Discard(), metrics.New())
	require.NoError(t, orders.CreateOrder(context.Background(),
		pendingOrder("o-1", "pi_1", line("P1", 2, 2499), line("P2", 1, 500))))

	_, err := svc.Fulfill(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"P1", "P2"}, products.ids)

	// a duplicate moves no stock, so nothing is evicted again
	_, err = svc.Fulfill(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Len(t, products.ids, 2)
}

func TestFulfill_KeepsCacheOnInsufficientStock(t *testing.T) {
	orders := newMockOrders(newMockCatalog(product("P1", 2499, 1)))
	products := &recordingInvalidator{}
	svc := NewFulfillmentService(orders, products, logger.Discard(), metrics.New())
	require.NoError(t, orders.CreateOrder(context.Background(), pendingOrder("o-1", "pi_1", line("P1", 2, 2499))))

	_, err := svc.Fulfill(context.Background(), "pi_1")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, products.ids)
}

func TestFulfill_DuplicateIsNoop(t *testing.T) {
	svc, orders, _ := newFulfillmentFixture(product("P1", 2499, 10))
	require.NoError(t, orders.CreateOrder(context.Background(), pendingOrder("o-1", "pi_1", line("P1", 2, 2499))))

	_, err := svc.Fulfill(context.Background(), "pi_1")
	require.NoError(t, err)

	outcome, err := svc.Fulfill(context.Background(), "pi_1")

	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 8, orders.Catalog.Products["P1"].Stock)
	assert.Equal(t, 1, orders.MarkCalls)
	assert.Len(t, orders.Events, 1)
}

func TestFulfill_ShippedOrderCountsAsDuplicate(t *testing.T) {
	svc, orders, _ := newFulfillmentFixture(product("P1", 100, 10))
	o := pendingOrder("o-1", "pi_1", line("P1", 1, 100))
	o.Status = domain.OrderStatusShipped
	require.NoError(t, orders.CreateOrder(context.Background(), o))

	outcome, err := svc.Fulfill(context.Background(), "pi_1")

	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 0, orders.MarkCalls)
}

func TestFulfill_UnknownPayment(t *testing.T) {
	svc, orders, m := newFulfillmentFixture()

	outcome, err := svc.Fulfill(context.Background(), "pi_unknown")

	assert.ErrorIs(t, err, ErrUnknownPayment)
	assert.Empty(t, outcome)
	assert.Equal(t, 0, orders.MarkCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fulfillments.WithLabelValues("unknown_payment")))
}

func TestFulfill_CancelledOrderNotPayable(t *testing.T) {
	svc, orders, _ := newFulfillmentFixture(product("P1", 100, 10))
	o := pendingOrder("o-1", "pi_1", line("P1", 1, 100))
	o.Status = domain.OrderStatusCancelled
	require.NoError(t, orders.CreateOrder(context.Background(), o))

	_, err := svc.Fulfill(context.Background(), "pi_1")

	assert.ErrorIs(t, err, ErrOrderNotPayable)
	assert.Equal(t, domain.OrderStatusCancelled, orders.Orders["o-1"].Status)
	assert.Equal(t, 10, orders.Catalog.Products["P1"].Stock)
}

func TestFulfill_InsufficientStockLeavesOrderPending(t *testing.T) {
	svc, orders, m := newFulfillmentFixture(product("P1", 100, 5), product("P2", 100, 1))
	require.NoError(t, orders.CreateOrder(context.Background(),
		pendingOrder("o-1", "pi_1", line("P1", 2, 100), line("P2", 2, 100))))

	_, err := svc.Fulfill(context.Background(), "pi_1")

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, domain.OrderStatusPending, orders.Orders["o-1"].Status)
	assert.Equal(t, 5, orders.Catalog.Products["P1"].Stock)
	assert.Equal(t, 1, orders.Catalog.Products["P2"].Stock)
	assert.Empty(t, orders.Events)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fulfillments.WithLabelValues("insufficient_stock")))
}

func TestFulfill_LostClaimResolvesToDuplicate(t *testing.T) {
	svc, orders, _ := newFulfillmentFixture(product("P1", 100, 5))
	require.NoError(t, orders.CreateOrder(context.Background(), pendingOrder("o-1", "pi_1", line("P1", 1, 100))))

	// the claim races with a concurrent delivery that wins
	racing := &racingStore{MockOrderStore: orders}
	svc.orders = racing

	outcome, err := svc.Fulfill(context.Background(), "pi_1")

	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 4, orders.Catalog.Products["P1"].Stock)
}

func TestFulfill_StoreError(t *testing.T) {
	svc, orders, m := newFulfillmentFixture(product("P1", 100, 5))
	require.NoError(t, orders.CreateOrder(context.Background(), pendingOrder("o-1", "pi_1", line("P1", 1, 100))))
	orders.MarkErr = errors.New("connection reset")

	_, err := svc.Fulfill(context.Background(), "pi_1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fulfillments.WithLabelValues("error")))
}

func TestFulfill_ConcurrentDeliveriesApplyOnce(t *testing.T) {
	svc, orders, _ := newFulfillmentFixture(product("P1", 100, 5))
	require.NoError(t, orders.CreateOrder(context.Background(), pendingOrder("o-1", "pi_1", line("P1", 3, 100))))

	const deliveries = 8
	outcomes := make(chan FulfillmentOutcome, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := svc.Fulfill(context.Background(), "pi_1")
			assert.NoError(t, err)
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	paid := 0
	for o := range outcomes {
		if o == OutcomePaid {
			paid++
		}
	}
	assert.Equal(t, 1, paid)
	assert.Equal(t, 2, orders.Catalog.Products["P1"].Stock)
	assert.Len(t, orders.Events, 1)
}

// racingStore pays the order through another delivery right before the claim.
type racingStore struct {
	*MockOrderStore
}

func (r *racingStore) MarkOrderPaid(ctx context.Context, order *domain.Order) error {
	winner := *order
	if err := r.MockOrderStore.MarkOrderPaid(ctx, &winner); err != nil {
		return err
	}
	return r.MockOrderStore.MarkOrderPaid(ctx, order)
}
