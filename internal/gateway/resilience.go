package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

func newBreaker(cfg Config, logger *zap.Logger) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// the processor answering with a client error is healthy
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T

	result, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}

	return result.(T), nil
}

// retryRead runs a read through the breaker, retrying transport failures,
// rate limits and 5xx answers with exponential backoff. Each attempt gets its
// own timeout.
func retryRead[T any](ctx context.Context, g *stripeGateway, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.cfg.RetryInitialInterval

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++

		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		r, err := execute(g.breaker, func() (T, error) {
			return fn(attemptCtx)
		})
		if err != nil {
			if !isRetryable(ctx, err) {
				return backoff.Permanent(err)
			}

			g.logger.Warn("stripe read failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(redact(err)))
			return err
		}

		result = r
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, g.cfg.MaxRetries), ctx))
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

func isClientError(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}

	return stripeErr.HTTPStatusCode >= 400 &&
		stripeErr.HTTPStatusCode < 500 &&
		stripeErr.HTTPStatusCode != http.StatusTooManyRequests
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	return !isClientError(err)
}

func mapError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %s", domain.ErrNotFound, op, stripeErr.Msg)
	}

	return fmt.Errorf("%w: %s: %w", domain.ErrGateway, op, redact(err))
}

// redact keeps only the status, code and message of API errors.
func redact(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe status[%d] code[%s]: %s", stripeErr.HTTPStatusCode, stripeErr.Code, stripeErr.Msg)
	}

	return err
}
