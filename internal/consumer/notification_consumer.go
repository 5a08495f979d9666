// Package consumer reads published outbox events back from Kafka.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/notification"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/segmentio/kafka-go"
)

const GroupID = "notifications"

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer sends order confirmations for order.paid messages. An offset is
// committed only after its confirmation was sent or deliberately dropped.
type Consumer struct {
	reader   messageReader
	notifier notification.Notifier
	log      *slog.Logger
	metrics  *metrics.Registry
	backoff  time.Duration
}

func NewConsumer(notifier notification.Notifier, topic string, log *slog.Logger, m *metrics.Registry, brokers ...string) *Consumer {
	if topic == "" {
		topic = publisher.DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, notifier: notifier, log: log, metrics: m, backoff: time.Second}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing kafka reader", slog.Any("error", err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.log.ErrorContext(ctx, "error reading message", slog.Any("error", err))
		c.sleep(ctx)
		return
	}

	if eventType(m) == domain.EventTypeOrderPaid {
		// retried in place; committing a later offset would skip this one
		for {
			err := publisher.Deliver(ctx, c.notifier, m.Value, c.log, c.metrics)
			if err == nil {
				break
			}
			c.log.WarnContext(ctx, "order confirmation failed, retrying",
				slog.String("key", string(m.Key)),
				slog.Any("error", err))
			c.sleep(ctx)
			if ctx.Err() != nil {
				return
			}
		}
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.log.ErrorContext(ctx, "failed to commit offset", slog.Int64("offset", m.Offset), slog.Any("error", err))
	}
}

func (c *Consumer) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.backoff):
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
