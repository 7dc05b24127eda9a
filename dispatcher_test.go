package workqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	d := NewDispatcher(append([]Option{WithLogger(discardLogger())}, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})
	return d
}

func TestDispatcherEnqueueBeforeInitialize(t *testing.T) {
	d := newTestDispatcher(t)

	assert.False(t, d.IsInitialized())
	err := d.EnqueueFunc(func() { t.Error("should not run") })
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, 0, d.Len())
}

func TestDispatcherRejectsNilTask(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Initialize())

	assert.ErrorIs(t, d.Enqueue(nil), ErrNilTask)
	assert.ErrorIs(t, d.EnqueueFunc(nil), ErrNilTask)
}

func TestDispatcherInitializeConcurrent(t *testing.T) {
	d := newTestDispatcher(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Initialize())
		}()
	}
	wg.Wait()

	first := d.lane.Load()
	require.NotNil(t, first)
	require.NoError(t, d.Initialize())
	assert.Same(t, first, d.lane.Load())
	assert.True(t, d.IsInitialized())
}

func TestDispatcherTotalOrder(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Initialize())

	var order recorder[int]
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		err := d.Enqueue(Bind(func(n int) {
			defer wg.Done()
			order.add(n)
		}, i))
		require.NoError(t, err)
	}
	waitTimeout(t, &wg, 5*time.Second)

	got := order.snapshot()
	require.Len(t, got, 100)
	for i, v := range got {
		require.Equal(t, i, v, "order: %v", got)
	}
}

func TestDispatcherRunsOffCallerGoroutine(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Initialize())

	gate := make(chan struct{})
	done := make(chan struct{})
	require.NoError(t, d.EnqueueFunc(func() {
		<-gate
		close(done)
	}))

	// Enqueue returned while the task is still blocked
	close(gate)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestDispatcherFailureIsolation(t *testing.T) {
	var failures recorder[Failure]
	d := newTestDispatcher(t, WithFailureHandler(func(f Failure) { failures.add(f) }))
	require.NoError(t, d.Initialize())

	var order recorder[int]
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		n := i
		require.NoError(t, d.EnqueueFunc(func() {
			defer wg.Done()
			if n == 2 {
				panic("item 2 failed")
			}
			order.add(n)
		}))
	}
	waitTimeout(t, &wg, 5*time.Second)

	assert.Equal(t, []int{0, 1, 3, 4}, order.snapshot())
	require.Eventually(t, func() bool { return failures.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(1), d.Stats().Failed)
}

func TestDispatcherShutdown(t *testing.T) {
	t.Run("drains queued tasks", func(t *testing.T) {
		d := newTestDispatcher(t)
		require.NoError(t, d.Initialize())

		gate := make(chan struct{})
		var order recorder[int]
		require.NoError(t, d.EnqueueFunc(func() { <-gate }))
		for i := 0; i < 10; i++ {
			require.NoError(t, d.Enqueue(Bind(order.add, i)))
		}

		errCh := make(chan error, 1)
		go func() { errCh <- d.Shutdown(context.Background()) }()

		// Intake stops as soon as shutdown begins
		require.Eventually(t, func() bool {
			return d.EnqueueFunc(func() {}) == ErrClosed
		}, time.Second, time.Millisecond)

		close(gate)
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("shutdown did not complete")
		}
		assert.Len(t, order.snapshot(), 10)
		assert.Equal(t, 0, d.Len())
	})

	t.Run("honours context deadline", func(t *testing.T) {
		d := NewDispatcher(WithLogger(discardLogger()))
		require.NoError(t, d.Initialize())

		gate := make(chan struct{})
		defer close(gate)
		require.NoError(t, d.EnqueueFunc(func() { <-gate }))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)
	})

	t.Run("before initialize", func(t *testing.T) {
		d := NewDispatcher(WithLogger(discardLogger()))
		require.NoError(t, d.Shutdown(context.Background()))
		assert.ErrorIs(t, d.Initialize(), ErrClosed)
		assert.False(t, d.IsInitialized())
		assert.ErrorIs(t, d.EnqueueFunc(func() {}), ErrClosed)
	})

	t.Run("enqueue racing shutdown never loses accepted tasks", func(t *testing.T) {
		for round := 0; round < 20; round++ {
			d := NewDispatcher(WithLogger(discardLogger()))
			require.NoError(t, d.Initialize())

			var accepted, executed atomic.Int64
			var producers sync.WaitGroup
			for p := 0; p < 8; p++ {
				producers.Add(1)
				go func() {
					defer producers.Done()
					for i := 0; i < 100; i++ {
						err := d.EnqueueFunc(func() { executed.Add(1) })
						if err == nil {
							accepted.Add(1)
						} else if !errors.Is(err, ErrClosed) {
							t.Errorf("unexpected error: %v", err)
						}
					}
				}()
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			require.NoError(t, d.Shutdown(ctx))
			cancel()
			producers.Wait()

			assert.Equal(t, accepted.Load(), executed.Load(), "round %d", round)
		}
	})
}
