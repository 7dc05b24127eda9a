package workqueue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Dispatcher runs every enqueued task on one background worker, in the
// order the tasks were enqueued.
type Dispatcher struct {
	opts   *options
	mutex  sync.Mutex // guards lane creation and shutdown
	lane   atomic.Pointer[lane]
	closed atomic.Bool
	stop   chan struct{}
}

// NewDispatcher creates a single-lane dispatcher. Initialize must be called
// before tasks can be enqueued.
func NewDispatcher(opts ...Option) *Dispatcher {
	return &Dispatcher{
		opts: applyOptions(opts...),
		stop: make(chan struct{}),
	}
}

// Initialize creates the lane and starts its worker.
// It is safe to call concurrently; only the first call has any effect.
// After Shutdown it returns ErrClosed and starts nothing.
func (d *Dispatcher) Initialize() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed.Load() {
		return ErrClosed
	}
	if d.lane.Load() != nil {
		return nil
	}

	l := newLane(d.opts.name, d.opts, d.stop)
	l.start()
	d.lane.Store(l)
	return nil
}

// Enqueue appends the task to the tail of the queue and wakes the worker.
// Completion is not observable; failures go to the logger and FailureHandler.
func (d *Dispatcher) Enqueue(task Task, opts ...EnqueueOption) error {
	if isNilTask(task) {
		return ErrNilTask
	}
	if d.closed.Load() {
		return ErrClosed
	}

	l := d.lane.Load()
	if l == nil {
		return ErrNotInitialized
	}
	if !l.tryPush(newQueueItem(task, opts...)) {
		return ErrClosed
	}
	return nil
}

// EnqueueFunc enqueues an argument-less function.
func (d *Dispatcher) EnqueueFunc(fn func(), opts ...EnqueueOption) error {
	return d.Enqueue(Func(fn), opts...)
}

// IsInitialized reports whether Initialize has started the worker.
func (d *Dispatcher) IsInitialized() bool {
	return d.lane.Load() != nil
}

// Len returns the number of tasks waiting to run.
func (d *Dispatcher) Len() int {
	if l := d.lane.Load(); l != nil {
		return l.queue.len()
	}
	return 0
}

// Stats returns the lane's counters; the zero value before Initialize.
func (d *Dispatcher) Stats() Stats {
	if l := d.lane.Load(); l != nil {
		return l.stats()
	}
	return Stats{}
}

// Shutdown stops accepting tasks and waits until the worker has run every
// task that was already queued, or until ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mutex.Lock()
	if !d.closed.Load() {
		d.closed.Store(true)
		if l := d.lane.Load(); l != nil {
			l.close()
		}
		close(d.stop)
		d.opts.logger.Info("dispatcher shutting down", slog.String("dispatcher", d.opts.name))
	}
	d.mutex.Unlock()

	l := d.lane.Load()
	if l == nil {
		return nil
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
