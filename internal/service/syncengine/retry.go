package syncengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"

	"go.uber.org/zap"
)

// retryPolicy retries one remote call with exponential backoff.
type retryPolicy struct {
	maxAttempts int
	initial     time.Duration
	max         time.Duration
}

func newRetryPolicy(cfg config.SyncConfig) retryPolicy {
	p := retryPolicy{maxAttempts: cfg.MaxAttempts, initial: cfg.InitialBackoff, max: cfg.MaxBackoff}
	if p.maxAttempts < 1 {
		p.maxAttempts = 1
	}
	if p.max < p.initial {
		p.max = p.initial
	}
	return p
}

func retryable(err error) bool {
	switch {
	case error_handling.IsNotFound(err), error_handling.IsValidation(err):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func (p retryPolicy) do(ctx context.Context, op string, fn func() error) error {
	backoff := p.initial
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !retryable(err) || attempt >= p.maxAttempts {
			return err
		}
		logger.CtxWarn(ctx, log_messages.SyncRetrying,
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-timer.C:
		}
		backoff *= 2
		if backoff > p.max {
			backoff = p.max
		}
	}
}
