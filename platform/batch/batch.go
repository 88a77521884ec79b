// Package batch provides a generic batch runner for queue consumers.
// It processes a slice of items with bounded concurrency, per-item retry
// with exponential backoff, and per-item failure isolation so one bad
// item never poisons the rest of the delivery.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"prospect_backend/platform/apperr"
	"prospect_backend/platform/logger"
)

// ErrBatchFailed is returned when partial failure reporting is disabled
// and at least one item failed. The whole delivery is then redelivered.
var ErrBatchFailed = errors.New("batch contained failed items")

// Options controls how a batch is processed.
type Options struct {
	// MaxConcurrency bounds the number of items processed at once when
	// Parallel is set. Values below 1 are treated as 1.
	MaxConcurrency int
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// RetryBaseDelay is the backoff base; attempt n waits base * 2^n.
	RetryBaseDelay time.Duration
	// PartialFailure reports failed item IDs in the Result instead of
	// failing the whole batch. When false, any failure yields ErrBatchFailed.
	PartialFailure bool
	// Parallel processes items concurrently instead of in order.
	Parallel bool
}

// Result summarizes one processed batch. Failed holds items that exhausted
// their retries on retryable errors and may be delivered again; Dropped holds
// items that failed permanently and must not be.
type Result struct {
	Total     int
	Succeeded []string
	Failed    []string
	Dropped   []string
	Duration  time.Duration
}

// Run processes items with the given options. id extracts a stable
// identifier used for failure reporting; process does the work for one
// item. Item failures are isolated: a returned error marks that item
// failed (or dropped, when the error is permanent) and processing
// continues. Run itself only errors when the context is cancelled or
// partial failure is disabled.
func Run[T any](
	ctx context.Context,
	log *logger.Logger,
	items []T,
	opts Options,
	id func(T) string,
	process func(context.Context, T) error,
) (*Result, error) {
	start := time.Now()
	res := &Result{Total: len(items)}
	if len(items) == 0 {
		return res, nil
	}

	var mu sync.Mutex
	record := func(itemID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			res.Succeeded = append(res.Succeeded, itemID)
		case apperr.Retryable(err):
			res.Failed = append(res.Failed, itemID)
		default:
			res.Dropped = append(res.Dropped, itemID)
		}
	}

	if opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		limit := opts.MaxConcurrency
		if limit < 1 {
			limit = 1
		}
		g.SetLimit(limit)
		for _, item := range items {
			g.Go(func() error {
				err := runItem(gctx, log, item, opts, id, process)
				record(id(item), err)
				// item errors are recorded, not propagated; only
				// cancellation aborts the group
				return context.Cause(gctx)
			})
		}
		if err := g.Wait(); err != nil {
			return res, err
		}
	} else {
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			err := runItem(ctx, log, item, opts, id, process)
			record(id(item), err)
		}
	}

	res.Duration = time.Since(start)

	if failed := len(res.Failed) + len(res.Dropped); failed > 0 && !opts.PartialFailure {
		return res, fmt.Errorf("%w: %d of %d items", ErrBatchFailed, failed, res.Total)
	}
	return res, nil
}

// runItem executes process for one item with retry and backoff.
func runItem[T any](
	ctx context.Context,
	log *logger.Logger,
	item T,
	opts Options,
	id func(T) string,
	process func(context.Context, T) error,
) error {
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(opts.RetryBaseDelay, attempt-1)); err != nil {
				return err
			}
		}

		lastErr = process(ctx, item)
		if lastErr == nil {
			return nil
		}
		if !apperr.Retryable(lastErr) {
			if log != nil {
				log.Warn("item dropped, permanent failure",
					"item_id", id(item),
					"error", lastErr,
				)
			}
			return lastErr
		}
		if log != nil && attempt < opts.MaxRetries {
			log.Debug("item retry scheduled",
				"item_id", id(item),
				"attempt", attempt+1,
				"error", lastErr,
			)
		}
	}
	return lastErr
}

// backoff returns base * 2^attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	return base * time.Duration(1<<uint(attempt))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
