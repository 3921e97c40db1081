package bookapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mmcdole/folio/internal/domain"
)

// BreakerSettings tunes the circuit breaker guarding the platform
type BreakerSettings struct {
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state count reset period
	Timeout          time.Duration // open duration before probing
	FailureThreshold uint32        // consecutive failures that open the circuit
}

// DefaultBreakerSettings returns the settings used by NewClient
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

func newBreaker(name string, s BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= s.FailureThreshold
			if trip {
				logger.Warn("opening circuit", "breaker", name, "consecutive_failures", counts.ConsecutiveFailures)
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit state change", "breaker", name, "from", from.String(), "to", to.String())
		},
		// Rejected credentials and caller cancellation say nothing about server health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrAuthFailed) ||
				errors.Is(err, context.Canceled)
		},
	})
}

// isBreakerRejection reports whether err came from the breaker itself
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
