package payment

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway guards CreateIntent with a circuit breaker. Signature
// verification is local and passes straight through.
type BreakerGateway struct {
	Gateway
	cb *gobreaker.CircuitBreaker[*Intent]
}

func WithBreaker(g Gateway, cb *gobreaker.CircuitBreaker[*Intent]) *BreakerGateway {
	return &BreakerGateway{Gateway: g, cb: cb}
}

func (b *BreakerGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	intent, err := b.cb.Execute(func() (*Intent, error) {
		return b.Gateway.CreateIntent(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("create intent (breaker %s): %w", b.cb.Name(), err)
	}
	return intent, nil
}
