package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New[string](Settings{Name: "test", ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (string, error) { return "", errBoom })
		assert.ErrorIs(t, err, errBoom)
	}

	calls := 0
	_, err := cb.Execute(func() (string, error) {
		calls++
		return "ok", nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestBreakerIgnoresSuccessfulClassification(t *testing.T) {
	cb := New[int](Settings{
		Name:                "test",
		ConsecutiveFailures: 1,
		IsSuccessful:        func(err error) bool { return err == nil || errors.Is(err, errBoom) },
	})

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, errBoom })
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
