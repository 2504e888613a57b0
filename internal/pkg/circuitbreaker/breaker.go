package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/piresc/tirtha/internal/pkg/logger"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrOpen is returned while the breaker rejects calls
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateOpen     = gobreaker.StateOpen
	StateHalfOpen = gobreaker.StateHalfOpen
)

// Config holds circuit breaker configuration
type Config struct {
	Name             string               // Name of the circuit breaker for logging
	MaxRequests      uint32               // Max requests allowed in half-open state
	Interval         time.Duration        // Interval to clear counters in closed state
	Timeout          time.Duration        // Timeout to switch from open to half-open
	FailureThreshold uint32               // Consecutive failures that open the breaker
	IsFailure        func(err error) bool // Function to determine if error should count as failure
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		IsFailure: func(err error) bool {
			return err != nil
		},
	}
}

// CircuitBreaker guards calls to a remote dependency
type CircuitBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// New creates a new circuit breaker. A nil logger uses the global one.
func New(config Config, l *logger.ZapLogger) *CircuitBreaker {
	if l == nil {
		l = logger.GetGlobalLogger()
	}
	isFailure := config.IsFailure
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !isFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("Circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	}

	return &CircuitBreaker{
		name: config.Name,
		cb:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Execute runs fn unless the breaker is open
func (c *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := c.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

// State returns the current breaker state
func (c *CircuitBreaker) State() State {
	return c.cb.State()
}

// Name returns the breaker name
func (c *CircuitBreaker) Name() string {
	return c.name
}
