package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// WriterConfig controls batching and retry for destination writes.
type WriterConfig struct {
	BatchSize     int
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	BatchPause    time.Duration
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 3 * time.Second
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = 60 * time.Second
	}
	return c
}

// BatchError reports the item offset of the batch that exhausted its retries,
// so a caller can checkpoint everything written before it.
type BatchError struct {
	Offset int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch at offset %d: %v", e.Offset, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// WriteBatches writes items in fixed-size batches, retrying each failed batch
// with a doubling delay before giving up. It returns the number of items
// durably written; on error that count covers only the batches before the
// failing one.
func WriteBatches[T any](ctx context.Context, log *zap.Logger, cfg WriterConfig, items []T, write func(context.Context, []T) error) (int, error) {
	cfg = cfg.withDefaults()
	written := 0
	for start := 0; start < len(items); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}
		if err := writeWithRetry(ctx, log, cfg, start, items[start:end], write); err != nil {
			return written, &BatchError{Offset: start, Err: err}
		}
		written += end - start
		if cfg.BatchPause > 0 && end < len(items) {
			if err := sleepCtx(ctx, cfg.BatchPause); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func writeWithRetry[T any](ctx context.Context, log *zap.Logger, cfg WriterConfig, offset int, batch []T, write func(context.Context, []T) error) error {
	delay := cfg.RetryDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = write(ctx, batch)
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}
		log.Warn("batch write failed, retrying",
			zap.Int("offset", offset),
			zap.Int("size", len(batch)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
		delay *= 2
		if delay > cfg.MaxRetryDelay {
			delay = cfg.MaxRetryDelay
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
