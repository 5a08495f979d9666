package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/customer"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeline struct {
	repo     *repository.Repository
	gateway  *payment.FakeGateway
	checkout *CheckoutService
	webhooks *WebhookService
	admin    *AdminService
	catalog  *CatalogService
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	repo, err := repository.NewSQLiteRepository(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(nil))
	t.Cleanup(func() { repo.Close() })

	log := logger.Discard()
	m := metrics.New()
	gateway := payment.NewFakeGateway("whsec_pipeline")
	catalog := NewCatalogService(repo, nil, log)
	fulfillment := NewFulfillmentService(repo, catalog, log, m)

	return &pipeline{
		repo:    repo,
		gateway: gateway,
		checkout: NewCheckoutService(NewPricer(repo), customer.NewSQLDirectory(repo), gateway, repo,
			CheckoutOptions{Currency: "usd"}, log, m),
		webhooks: NewWebhookService(gateway, fulfillment, nil, log, m),
		admin:    NewAdminService(repo, log),
		catalog:  catalog,
	}
}

func (p *pipeline) seed(t *testing.T, id string, price int64, stock int) {
	t.Helper()
	require.NoError(t, p.repo.UpsertProduct(context.Background(), &domain.Product{
		ID: id, Name: "Product " + id, UnitPrice: price, Stock: stock, IsActive: true,
	}))
}

func (p *pipeline) confirm(t *testing.T, eventID, paymentID string) *WebhookResult {
	t.Helper()
	payload := payment.EventPayload(eventID, payment.EventPaymentSucceeded, paymentID)
	res, err := p.webhooks.Handle(context.Background(), payload, p.gateway.Sign(payload, time.Now()))
	require.NoError(t, err)
	return res
}

func (p *pipeline) stock(t *testing.T, id string) int {
	t.Helper()
	product, err := p.repo.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func TestPipeline_CheckoutToPaid(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.seed(t, "P1", 2499, 10)

	res, err := p.checkout.Checkout(ctx, checkoutRequest(domain.CartLine{ProductID: "P1", Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, 10, p.stock(t, "P1"))

	// price changes after checkout do not touch the order
	require.NoError(t, p.catalog.UpdatePrice(ctx, "P1", 2999))

	result := p.confirm(t, "evt_1", res.Order.GatewayPaymentID)
	assert.Equal(t, WebhookProcessed, result.Outcome)

	order, err := p.repo.GetOrderByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.True(t, order.IsPaid)
	assert.Equal(t, int64(4998), order.Total)
	assert.Equal(t, int64(2499), order.Items[0].UnitPrice)
	assert.Equal(t, 8, p.stock(t, "P1"))

	entries, err := p.repo.LedgerEntries(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, -2, entries[0].Delta)

	events, err := p.repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeOrderPaid, events[0].EventType)

	// redelivery and a different event id for the same payment are both no-ops
	assert.Equal(t, WebhookDuplicate, p.confirm(t, "evt_1", res.Order.GatewayPaymentID).Outcome)
	assert.Equal(t, WebhookDuplicate, p.confirm(t, "evt_2", res.Order.GatewayPaymentID).Outcome)
	assert.Equal(t, 8, p.stock(t, "P1"))

	drifts, err := p.catalog.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestPipeline_LastUnitSoldTwice(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.seed(t, "P1", 500, 1)

	first, err := p.checkout.Checkout(ctx, checkoutRequest(domain.CartLine{ProductID: "P1", Quantity: 1}))
	require.NoError(t, err)
	second, err := p.checkout.Checkout(ctx, checkoutRequest(domain.CartLine{ProductID: "P1", Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, WebhookProcessed, p.confirm(t, "evt_a", first.Order.GatewayPaymentID).Outcome)
	assert.Equal(t, WebhookAnomaly, p.confirm(t, "evt_b", second.Order.GatewayPaymentID).Outcome)

	assert.Equal(t, 0, p.stock(t, "P1"))
	loser, err := p.repo.GetOrderByID(ctx, second.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, loser.Status)

	// after a restock the redelivered confirmation completes the order
	_, err = p.catalog.Restock(ctx, "P1", 1, "")
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, p.confirm(t, "evt_b", second.Order.GatewayPaymentID).Outcome)
	assert.Equal(t, 0, p.stock(t, "P1"))
}

func TestPipeline_CancelledOrderIgnoresPayment(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.seed(t, "P1", 500, 3)

	res, err := p.checkout.Checkout(ctx, checkoutRequest(domain.CartLine{ProductID: "P1", Quantity: 1}))
	require.NoError(t, err)
	_, err = p.admin.UpdateStatus(ctx, res.Order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, WebhookAnomaly, p.confirm(t, "evt_1", res.Order.GatewayPaymentID).Outcome)
	assert.Equal(t, 3, p.stock(t, "P1"))
}
