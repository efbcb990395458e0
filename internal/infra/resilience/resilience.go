// Package resilience provides fault-tolerance patterns for platform calls:
// a circuit breaker and a bulkhead. Calls are never retried here; sends are
// not idempotent and retry belongs to the caller.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	MaxConcurrency int
	// Trip the breaker once this many requests were seen in the window and
	// the failure ratio reaches FailureRatio.
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
}

// DefaultConfig mirrors the breaker defaults used across the gateway.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 50,
		MinRequests:    5,
		FailureRatio:   0.6,
		OpenTimeout:    10 * time.Second,
	}
}

// NewCircuitBreaker creates a circuit breaker with sensible defaults.
// isFailure decides which errors count against the breaker; nil counts every error.
func NewCircuitBreaker(name string, cfg Config, isFailure func(error) bool) *gobreaker.CircuitBreaker {
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.6
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     cfg.OpenTimeout,  // open -> half-open
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
	}
	if isFailure != nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || !isFailure(err)
		}
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// IsOpen reports whether err was produced by an open or saturated breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
// A non-positive value disables the limit.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency <= 0 {
		return &Bulkhead{}
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b.sem == nil {
		return ctx.Err()
	}
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	if b.sem == nil {
		return
	}
	<-b.sem
}
