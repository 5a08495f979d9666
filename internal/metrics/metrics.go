// Package metrics holds the Prometheus collectors of the checkout pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type Registry struct {
	reg *prometheus.Registry

	Checkouts      *prometheus.CounterVec
	Webhooks       *prometheus.CounterVec
	Fulfillments   *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
	OutboxBacklog  prometheus.Gauge
	InventoryDrift prometheus.Gauge
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		Webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook deliveries by event type and outcome.",
		}, []string{"type", "outcome"}),
		Fulfillments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fulfillments_total",
			Help:      "Fulfillment attempts by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Order confirmation dispatches by outcome.",
		}, []string{"outcome"}),
		OutboxBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_backlog_events",
			Help:      "Unprocessed outbox events seen by the last poll.",
		}),
		InventoryDrift: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_drift_products",
			Help:      "Products whose stock disagrees with the inventory ledger.",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Checkouts,
		r.Webhooks,
		r.Fulfillments,
		r.Notifications,
		r.OutboxBacklog,
		r.InventoryDrift,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
