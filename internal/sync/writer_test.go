package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func fastWriter() WriterConfig {
	return WriterConfig{
		BatchSize:     10,
		MaxRetries:    3,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 2 * time.Millisecond,
	}
}

func TestWriteBatches_SplitsBatches(t *testing.T) {
	items := make([]int, 25)
	var batches [][]int
	written, err := WriteBatches(context.Background(), zap.NewNop(), fastWriter(), items, func(ctx context.Context, batch []int) error {
		batches = append(batches, batch)
		return nil
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if written != 25 {
		t.Fatalf("written=%d", written)
	}
	if len(batches) != 3 || len(batches[0]) != 10 || len(batches[2]) != 5 {
		t.Fatalf("batches=%d sizes unexpected", len(batches))
	}
}

func TestWriteBatches_RetryThenSucceed(t *testing.T) {
	items := make([]int, 5)
	attempts := 0
	written, err := WriteBatches(context.Background(), zap.NewNop(), fastWriter(), items, func(ctx context.Context, batch []int) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if written != 5 {
		t.Fatalf("written=%d", written)
	}
	if attempts != 3 {
		t.Fatalf("attempts=%d", attempts)
	}
}

func TestWriteBatches_ExhaustedReportsOffset(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}
	sink := errors.New("sink down")
	_, err := WriteBatches(context.Background(), zap.NewNop(), fastWriter(), items, func(ctx context.Context, batch []int) error {
		if batch[0] == 10 {
			return sink
		}
		return nil
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("err=%T", err)
	}
	if batchErr.Offset != 10 {
		t.Fatalf("offset=%d want 10", batchErr.Offset)
	}
	if !errors.Is(err, sink) {
		t.Fatalf("cause not wrapped")
	}
}

func TestWriteBatches_PartialCountOnFailure(t *testing.T) {
	items := make([]int, 30)
	for i := range items {
		items[i] = i
	}
	failFrom := 20
	written, err := WriteBatches(context.Background(), zap.NewNop(), fastWriter(), items, func(ctx context.Context, batch []int) error {
		if batch[0] >= failFrom {
			return errors.New("boom")
		}
		return nil
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if written != 20 {
		t.Fatalf("written=%d want 20", written)
	}
}

func TestWriteBatches_Empty(t *testing.T) {
	written, err := WriteBatches(context.Background(), zap.NewNop(), fastWriter(), nil, func(ctx context.Context, batch []int) error {
		t.Fatalf("write called for empty input")
		return nil
	})
	if err != nil || written != 0 {
		t.Fatalf("written=%d err=%v", written, err)
	}
}

func TestWriteBatches_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := make([]int, 5)
	_, err := WriteBatches(ctx, zap.NewNop(), fastWriter(), items, func(ctx context.Context, batch []int) error {
		return errors.New("should retry")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}
