package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
)

const eventMarkerTTL = 24 * time.Hour

type WebhookOutcome string

const (
	WebhookProcessed WebhookOutcome = "processed"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookLogged    WebhookOutcome = "logged"
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookAnomaly   WebhookOutcome = "anomaly"
)

type WebhookResult struct {
	EventID string
	Type    payment.EventType
	Outcome WebhookOutcome
}

type Fulfiller interface {
	Fulfill(ctx context.Context, paymentID string) (FulfillmentOutcome, error)
}

type WebhookService struct {
	gateway     payment.Gateway
	fulfillment Fulfiller
	marker      cache.EventMarker
	log         *slog.Logger
	metrics     *metrics.Registry
}

func NewWebhookService(gateway payment.Gateway, fulfillment Fulfiller, marker cache.EventMarker, log *slog.Logger, m *metrics.Registry) *WebhookService {
	if marker == nil {
		marker = cache.Noop{}
	}
	return &WebhookService{gateway: gateway, fulfillment: fulfillment, marker: marker, log: log, metrics: m}
}

// Handle authenticates and dispatches one gateway delivery. A non-nil error is
// either a verification failure (payment.ErrInvalidSignature,
// payment.ErrMalformedEvent) or an infrastructure failure worth a gateway retry.
// Business anomalies are logged and reported through the result.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ev, err := s.gateway.VerifySignature(payload, signature)
	if err != nil {
		s.metrics.Webhooks.WithLabelValues("unverified", "rejected").Inc()
		s.log.WarnContext(ctx, "webhook rejected", slog.Any("error", err))
		return nil, err
	}

	res, err := s.dispatch(ctx, ev)
	outcome := "error"
	if err == nil {
		outcome = string(res.Outcome)
	}
	s.metrics.Webhooks.WithLabelValues(string(ev.Type), outcome).Inc()
	return res, err
}

func (s *WebhookService) dispatch(ctx context.Context, ev *payment.Event) (*WebhookResult, error) {
	res := &WebhookResult{EventID: ev.ID, Type: ev.Type}
	log := s.log.With(slog.String("event_id", ev.ID), slog.String("event_type", string(ev.Type)))

	if ev.ID != "" {
		seen, err := s.marker.Seen(ctx, ev.ID)
		if err != nil {
			log.WarnContext(ctx, "event marker lookup failed", slog.Any("error", err))
		}
		if seen {
			res.Outcome = WebhookDuplicate
			return res, nil
		}
	}

	switch ev.Type {
	case payment.EventPaymentSucceeded:
		if ev.PaymentID == "" {
			log.ErrorContext(ctx, "payment succeeded event without payment id")
			res.Outcome = WebhookAnomaly
			return res, nil
		}
		outcome, err := s.fulfillment.Fulfill(ctx, ev.PaymentID)
		switch {
		case err == nil && outcome == OutcomeDuplicate:
			res.Outcome = WebhookDuplicate
		case err == nil:
			res.Outcome = WebhookProcessed
		case isFulfillmentAnomaly(err):
			// already logged; acknowledged so the gateway stops redelivering
			res.Outcome = WebhookAnomaly
			return res, nil
		default:
			return nil, err
		}

	case payment.EventPaymentFailed:
		log.WarnContext(ctx, "payment failed",
			slog.String("payment_id", ev.PaymentID),
			slog.String("reason", ev.FailureMessage))
		res.Outcome = WebhookLogged

	default:
		res.Outcome = WebhookIgnored
	}

	if ev.ID != "" {
		if err := s.marker.Mark(ctx, ev.ID, eventMarkerTTL); err != nil {
			log.WarnContext(ctx, "event marker write failed", slog.Any("error", err))
		}
	}
	return res, nil
}

func isFulfillmentAnomaly(err error) bool {
	return errors.Is(err, ErrUnknownPayment) ||
		errors.Is(err, ErrOrderNotPayable) ||
		errors.Is(err, ErrInsufficientStock)
}
