package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/notification"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "storefront-outbox"

// KafkaSink writes events to a topic keyed by aggregate id, so all events of
// one order land on the same partition.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(topic string, brokers ...string) *KafkaSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaSink{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireAll,
	}}
}

func (s *KafkaSink) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload, // Already JSON from database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return s.writer.WriteMessages(ctx, msg)
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// NotifierSink hands order.paid events straight to a notifier when no broker
// is configured.
type NotifierSink struct {
	notifier notification.Notifier
	log      *slog.Logger
	metrics  *metrics.Registry
}

func NewNotifierSink(notifier notification.Notifier, log *slog.Logger, m *metrics.Registry) *NotifierSink {
	return &NotifierSink{notifier: notifier, log: log, metrics: m}
}

func (s *NotifierSink) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if event.EventType != domain.EventTypeOrderPaid {
		return nil
	}
	return Deliver(ctx, s.notifier, event.Payload, s.log, s.metrics)
}

func (s *NotifierSink) Close() error {
	return nil
}

// Deliver decodes an order.paid payload and sends the confirmation. Payloads
// that can never be delivered are logged and dropped.
func Deliver(ctx context.Context, notifier notification.Notifier, payload []byte, log *slog.Logger, m *metrics.Registry) error {
	var ev domain.OrderPaidEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.ErrorContext(ctx, "dropping undecodable order paid event", slog.Any("error", err))
		m.Notifications.WithLabelValues("dropped").Inc()
		return nil
	}

	err := notifier.SendOrderConfirmation(ctx, ev)
	switch {
	case err == nil:
		m.Notifications.WithLabelValues("sent").Inc()
		return nil
	case errors.Is(err, notification.ErrMissingRecipient):
		log.ErrorContext(ctx, "dropping confirmation without recipient", slog.String("order_id", ev.OrderID))
		m.Notifications.WithLabelValues("dropped").Inc()
		return nil
	default:
		m.Notifications.WithLabelValues("failed").Inc()
		return fmt.Errorf("send confirmation for order %s: %w", ev.OrderID, err)
	}
}
