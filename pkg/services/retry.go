package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"hugo-drive-sync/pkg/config"
)

// RetryPolicy retries a single fallible operation with exponential backoff and jitter.
// Only errors accepted by IsTransient are retried; anything else returns at once.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
	IsTransient func(error) bool
	Logger      zerolog.Logger
}

func NewRetryPolicy(cfg config.Config, logger zerolog.Logger) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.BackoffBase,
		MaxDelay:    cfg.BackoffCap,
		Jitter:      0.5,
		IsTransient: IsTransientDriveError,
		Logger:      logger.With().Str("component", "RetryPolicy").Logger(),
	}
}

// Do runs op until it succeeds, fails permanently, or the attempt budget is spent.
// Exhaustion is reported as *RemoteUnavailableError wrapping the last cause.
func Do[T any](ctx context.Context, p RetryPolicy, name string, op func(context.Context) (T, error)) (T, error) {
	attempts := 0
	permanent := false

	operation := func() (T, error) {
		attempts++
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if p.IsTransient == nil || !p.IsTransient(err) {
			permanent = true
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	expo := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: p.Jitter,
		Multiplier:          2,
		MaxInterval:         p.MaxDelay,
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.Logger.Warn().
				Err(err).
				Str("operation", name).
				Int("attempt", attempts).
				Int("max_attempts", maxAttempts).
				Dur("delay", next).
				Msg("Transient remote error, retrying")
		}),
	)
	if err == nil {
		return res, nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if permanent || ctx.Err() != nil {
		return res, err
	}
	return res, &RemoteUnavailableError{Op: name, Attempts: attempts, Err: err}
}
