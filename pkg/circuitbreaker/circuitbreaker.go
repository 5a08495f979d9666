// Package circuitbreaker wraps sony/gobreaker with the defaults shared by outbound calls.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

type Settings struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// IsSuccessful classifies errors that should not count as failures.
	IsSuccessful func(err error) bool
	Logger       *slog.Logger
}

func New[T any](s Settings) *gobreaker.CircuitBreaker[T] {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: s.IsSuccessful,
	}
	if s.Logger != nil {
		log := s.Logger
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		}
	}
	return gobreaker.NewCircuitBreaker[T](st)
}
