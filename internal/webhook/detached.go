package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/inboundkit/internal/logging"
)

// JobError reports a failed detached job.
type JobError struct {
	Job string
	Err error
}

func (e JobError) Error() string { return e.Job + ": " + e.Err.Error() }

// Detached runs work that outlives the request that started it. Each job
// gets its own context bounded by the configured timeout. Failures are
// published on Errors; when nobody drains it they are logged directly.
type Detached struct {
	timeout time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	closed    bool
	wg        sync.WaitGroup
	errs      chan JobError
	closeErrs sync.Once
}

// NewDetached returns a runner whose jobs time out after timeout.
func NewDetached(timeout time.Duration, logger *slog.Logger) *Detached {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Detached{
		timeout: timeout,
		logger:  logger,
		errs:    make(chan JobError, 64),
	}
}

// Go starts fn in the background. It returns false once Wait has been
// called.
func (d *Detached) Go(job string, fn func(ctx context.Context) error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.wg.Add(1)
	go d.run(job, fn)
	return true
}

func (d *Detached) run(job string, fn func(ctx context.Context) error) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.report(job, fmt.Errorf("panic: %v", r))
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		d.report(job, err)
		return
	}
	d.logger.Info("detached job finished", "job", job, "duration", time.Since(start))
}

func (d *Detached) report(job string, err error) {
	select {
	case d.errs <- JobError{Job: job, Err: err}:
	default:
		d.logger.Error("detached job failed", "job", job, "error", err)
	}
}

// Errors returns the channel failed jobs are published on. It is closed
// when Wait returns nil.
func (d *Detached) Errors() <-chan JobError {
	return d.errs
}

// Wait stops accepting jobs and blocks until the running ones finish or
// ctx is done.
func (d *Detached) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.closeErrs.Do(func() { close(d.errs) })
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for detached jobs: %w", ctx.Err())
	}
}
