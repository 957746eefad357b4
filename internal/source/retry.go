package source

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"go.uber.org/zap"
)

// callWithRetry runs fn with a per-attempt timeout and exponential backoff
// between attempts. Failures are wrapped as SourceTimeout or SourceUnavailable.
func callWithRetry[T any](ctx context.Context, opts Options, log *logger.Logger, what string, fn func(ctx context.Context) (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	if opts.Retry.InitialInterval > 0 {
		policy.InitialInterval = opts.Retry.InitialInterval
	}

	if opts.Retry.MaxInterval > 0 {
		policy.MaxInterval = opts.Retry.MaxInterval
	}

	policy.MaxElapsedTime = 0

	attempts := opts.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	operation := func() (T, error) {
		callCtx := ctx
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}

		result, err := fn(callCtx)
		if err != nil && ctx.Err() != nil {
			return result, backoff.Permanent(err)
		}

		return result, err
	}

	result, err := backoff.RetryNotifyWithData(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx),
		func(err error, wait time.Duration) {
			log.Warn("Engine call failed, retrying",
				zap.String("call", what),
				zap.Error(err),
				zap.Duration("retry_delay", wait),
			)
		},
	)
	if err != nil {
		var zero T
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return zero, errors.Wrapf(errors.ErrCodeSourceTimeout, err, "%s timed out", what)
		}

		return zero, errors.Wrapf(errors.ErrCodeSourceUnavailable, err, "%s failed", what)
	}

	return result, nil
}
