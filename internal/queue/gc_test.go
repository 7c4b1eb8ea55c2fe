package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type mockDLQPurger struct {
	purgeFunc func(ctx context.Context, retention time.Duration) (int, error)
}

func (m *mockDLQPurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	if m.purgeFunc != nil {
		return m.purgeFunc(ctx, retention)
	}
	return 0, nil
}

func TestGarbageCollector_PurgeOnce(t *testing.T) {
	t.Parallel()

	var called atomic.Bool
	mock := &mockDLQPurger{
		purgeFunc: func(ctx context.Context, retention time.Duration) (int, error) {
			called.Store(true)
			if retention != 24*time.Hour {
				t.Errorf("unexpected retention %v", retention)
			}
			return 3, nil
		},
	}
	gc := NewGarbageCollector(mock, 24*time.Hour, time.Minute, zap.NewNop())
	gc.purgeOnce(context.Background())
	if !called.Load() {
		t.Error("PurgeOlderThan was not called")
	}
}

func TestGarbageCollector_PurgeOnce_PurgerError(t *testing.T) {
	t.Parallel()

	// A purge error must not panic or stop the collector.
	mock := &mockDLQPurger{
		purgeFunc: func(context.Context, time.Duration) (int, error) {
			return 0, errors.New("purge failed")
		},
	}
	gc := NewGarbageCollector(mock, time.Hour, time.Minute, zap.NewNop())
	gc.purgeOnce(context.Background())
}

func TestGarbageCollector_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	mock := &mockDLQPurger{purgeFunc: func(context.Context, time.Duration) (int, error) { return 0, nil }}
	gc := NewGarbageCollector(mock, 24*time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		gc.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Run did not stop after context cancellation")
	}
}

func TestGarbageCollector_Run_Ticks(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mock := &mockDLQPurger{
		purgeFunc: func(context.Context, time.Duration) (int, error) {
			calls.Add(1)
			return 1, nil
		},
	}
	gc := NewGarbageCollector(mock, time.Hour, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	gc.Run(ctx)

	if calls.Load() == 0 {
		t.Error("expected at least one purge tick")
	}
}
