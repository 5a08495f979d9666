// Package payment adapts external payment processors to the checkout pipeline.
package payment

import (
	"context"
	"errors"
	"fmt"
)

// SignatureHeader carries the webhook signature for every provider.
const SignatureHeader = "Stripe-Signature"

type EventType string

const (
	EventPaymentSucceeded EventType = "payment_intent.succeeded"
	EventPaymentFailed    EventType = "payment_intent.payment_failed"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

type IntentRequest struct {
	AmountMinor    int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
}

// Event is a verified gateway notification. PaymentID is set for payment intent events.
type Event struct {
	ID             string
	Type           EventType
	PaymentID      string
	FailureMessage string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// VerifySignature authenticates the raw payload against the signature header
	// and parses it. It returns ErrInvalidSignature for unauthenticated payloads.
	VerifySignature(payload []byte, header string) (*Event, error)
}

const (
	ProviderStripe = "stripe"
	ProviderFake   = "fake"
)

type Config struct {
	Provider            string
	StripeSecretKey     string
	StripeWebhookSecret string
	FakeWebhookSecret   string
}

// New builds the gateway selected by cfg.Provider.
func New(cfg Config) (Gateway, error) {
	switch cfg.Provider {
	case ProviderStripe:
		if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
			return nil, errors.New("stripe gateway requires a secret key and a webhook secret")
		}
		return NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil), nil
	case ProviderFake, "":
		return NewFakeGateway(cfg.FakeWebhookSecret), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
