// Package publisher relays committed outbox events to their consumers.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
)

const batchSize = 100

type OutboxStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	ReconcileInventory(ctx context.Context) ([]domain.StockDrift, error)
}

// Sink receives outbox events. An error leaves the event unprocessed so the next
// tick retries it.
type Sink interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
	Close() error
}

type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	repo         OutboxStore
	sink         Sink
	log          *slog.Logger
	metrics      *metrics.Registry
}

func NewOutboxPoller(repo OutboxStore, sink Sink, log *slog.Logger, m *metrics.Registry) *OutboxPoller {
	return &OutboxPoller{
		eventTick:    time.Second,
		recoveryTick: time.Minute,
		repo:         repo,
		sink:         sink,
		log:          log,
		metrics:      m,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.checkInventory(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		if ctx.Err() == nil {
			p.log.ErrorContext(ctx, "failed to fetch outbox events", slog.Any("error", err))
		}
		return
	}
	p.metrics.OutboxBacklog.Set(float64(len(events)))

	for _, event := range events {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.log.WarnContext(ctx, "failed to publish outbox event",
				slog.Int64("event_id", event.ID),
				slog.String("event_type", event.EventType),
				slog.Any("error", err))
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.ErrorContext(ctx, "failed to mark outbox event processed",
				slog.Int64("event_id", event.ID),
				slog.Any("error", err))
		}
	}
}

// checkInventory compares stock counters with the ledger and reports drift.
func (p *OutboxPoller) checkInventory(ctx context.Context) {
	drifts, err := p.repo.ReconcileInventory(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.ErrorContext(ctx, "inventory reconciliation failed", slog.Any("error", err))
		}
		return
	}
	p.metrics.InventoryDrift.Set(float64(len(drifts)))
	for _, d := range drifts {
		p.log.ErrorContext(ctx, "inventory drift detected",
			slog.String("product_id", d.ProductID),
			slog.Int("stock", d.Stock),
			slog.Int("expected", d.Expected()))
	}
}
