package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultDispatchWorkers = 8
	defaultDispatchTimeout = 15 * time.Second
)

// Dispatcher runs fire-and-forget side effects (emails, webhooks) on a
// bounded number of goroutines. Failures and panics are logged, never
// returned to the caller.
type Dispatcher struct {
	slots   chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher returns a Dispatcher running at most workers tasks at once,
// each bounded by timeout.
func NewDispatcher(logger *slog.Logger, workers int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = defaultDispatchWorkers
	}
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{
		slots:   make(chan struct{}, workers),
		timeout: timeout,
		logger:  logger,
	}
}

// Go schedules fn. The task context keeps ctx's values but not its
// cancellation, so it outlives the request that triggered it.
func (d *Dispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	taskCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.slots <- struct{}{}
		defer func() { <-d.slots }()

		ctx, cancel := context.WithTimeout(taskCtx, d.timeout)
		defer cancel()

		start := time.Now()
		if err := d.run(ctx, fn); err != nil {
			d.logger.ErrorContext(ctx, "side effect failed", "task", name, "err", err, "duration_ms", time.Since(start).Milliseconds())
			return
		}
		d.logger.DebugContext(ctx, "side effect done", "task", name, "duration_ms", time.Since(start).Milliseconds())
	}()
}

func (d *Dispatcher) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every scheduled task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
