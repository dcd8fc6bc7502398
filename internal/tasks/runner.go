package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner runs fire-and-forget work outside the request that scheduled it.
// Tasks get a fresh context bounded by the runner's timeout; errors and panics
// are logged, never returned.
type Runner struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRunner(logger *zap.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Runner{logger: logger, timeout: timeout}
}

func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		start := time.Now()
		logger := r.logger.With(zap.String("task", name))

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("task panicked", zap.String("panic", fmt.Sprint(rec)))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Warn("task failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		logger.Debug("task finished", zap.Duration("elapsed", time.Since(start)))
	}()
}

// Wait blocks until every scheduled task has returned or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
