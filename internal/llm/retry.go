package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/focusnest/server/internal/apperr"
)

// Retrying retries transient gateway failures with exponential backoff. Only
// KindUpstreamUnavailable is retried; contract failures are returned at once.
type Retrying struct {
	next       Gateway
	maxRetries uint64
	base       time.Duration
	logger     *slog.Logger
}

// NewRetrying wraps next. maxRetries counts retries after the first attempt.
func NewRetrying(next Gateway, maxRetries uint64, base time.Duration, logger *slog.Logger) *Retrying {
	return &Retrying{next: next, maxRetries: maxRetries, base: base, logger: logger}
}

func (r *Retrying) Complete(ctx context.Context, systemRole, userPrompt string, s Sampling) (string, error) {
	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.base))

	var reply string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, err := r.next.Complete(ctx, systemRole, userPrompt, s)
		if err != nil {
			if apperr.Is(err, apperr.KindUpstreamUnavailable) && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "completion unavailable, retrying", "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			// retry.Do surfaces the bare context error when the caller goes away
			return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "completion service timed out", err)
		}
		return "", err
	}
	return reply, nil
}
