package workqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// KeyedDispatcher runs tasks on one dedicated worker per key.
// Tasks with the same key execute in enqueue order; tasks with different
// keys execute concurrently and never delay each other.
type KeyedDispatcher[K comparable] struct {
	opts     *options
	initOnce sync.Once
	registry atomic.Pointer[registry[K]]
	workers  atomic.Int64

	// closeMu is taken by InitializeKey and Shutdown only; Enqueue checks
	// closed and then the lane's own gate.
	closeMu sync.RWMutex
	closed  atomic.Bool
	stop    chan struct{}
}

// NewKeyed creates a keyed dispatcher. Initialize must be called before
// keys can be registered.
func NewKeyed[K comparable](opts ...Option) *KeyedDispatcher[K] {
	return &KeyedDispatcher[K]{
		opts: applyOptions(opts...),
		stop: make(chan struct{}),
	}
}

// Initialize creates the key registry. No workers are started until keys
// are registered with InitializeKey. Safe to call concurrently and more
// than once.
func (d *KeyedDispatcher[K]) Initialize() {
	d.initOnce.Do(func() {
		d.registry.Store(newRegistry[K](d.opts.shards))
		d.opts.logger.Debug("dispatcher initialized",
			slog.String("dispatcher", d.opts.name),
			slog.Int("shards", d.opts.shards))
	})
}

// IsInitialized reports whether Initialize has been called.
func (d *KeyedDispatcher[K]) IsInitialized() bool {
	return d.registry.Load() != nil
}

// InitializeKey ensures a lane and its worker exist for key. Concurrent
// calls for the same key start exactly one worker and all observe the same
// lane; calls for keys in different shards do not block each other.
func (d *KeyedDispatcher[K]) InitializeKey(key K) error {
	if d.closed.Load() {
		return ErrClosed
	}
	reg := d.registry.Load()
	if reg == nil {
		return ErrNotInitialized
	}

	// Held shared so Shutdown observes every lane created before it.
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.closed.Load() {
		return ErrClosed
	}

	_, created := reg.getOrCreate(key, func() *lane {
		l := newLane(fmt.Sprint(key), d.opts, d.stop)
		l.start()
		return l
	})
	if created {
		d.workers.Add(1)
	}
	return nil
}

// Enqueue appends the task to key's lane and wakes its worker. The key must
// have been registered with InitializeKey; an unknown key is reported as
// ErrUnknownKey and the task is not queued.
func (d *KeyedDispatcher[K]) Enqueue(key K, task Task, opts ...EnqueueOption) error {
	if isNilTask(task) {
		return ErrNilTask
	}
	if d.closed.Load() {
		return ErrClosed
	}

	reg := d.registry.Load()
	if reg == nil {
		return ErrNotInitialized
	}

	l, ok := reg.get(key)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownKey, key)
	}

	if !l.tryPush(newQueueItem(task, opts...)) {
		return ErrClosed
	}
	return nil
}

// EnqueueFunc enqueues an argument-less function to key's lane.
func (d *KeyedDispatcher[K]) EnqueueFunc(key K, fn func(), opts ...EnqueueOption) error {
	return d.Enqueue(key, Func(fn), opts...)
}

// HasKey reports whether key has a lane.
func (d *KeyedDispatcher[K]) HasKey(key K) bool {
	reg := d.registry.Load()
	if reg == nil {
		return false
	}
	_, ok := reg.get(key)
	return ok
}

// Keys returns the registered keys in no particular order.
func (d *KeyedDispatcher[K]) Keys() []K {
	reg := d.registry.Load()
	if reg == nil {
		return nil
	}
	keys := make([]K, 0, reg.len())
	reg.each(func(k K, _ *lane) {
		keys = append(keys, k)
	})
	return keys
}

// QueueLength returns the number of tasks waiting in key's lane.
func (d *KeyedDispatcher[K]) QueueLength(key K) (int, error) {
	reg := d.registry.Load()
	if reg == nil {
		return 0, ErrNotInitialized
	}
	l, ok := reg.get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownKey, key)
	}
	return l.queue.len(), nil
}

// TotalQueueLength returns the number of tasks waiting across all lanes.
func (d *KeyedDispatcher[K]) TotalQueueLength() int {
	return d.Stats().Pending
}

// Stats aggregates the counters of every lane. Workers counts worker
// goroutines started over the dispatcher's lifetime.
func (d *KeyedDispatcher[K]) Stats() Stats {
	reg := d.registry.Load()
	if reg == nil {
		return Stats{}
	}
	var s Stats
	reg.each(func(_ K, l *lane) {
		s = s.add(l.stats())
	})
	s.Workers = int(d.workers.Load())
	return s
}

// Shutdown stops accepting keys and tasks, then waits for every lane to run
// what was already queued, or until ctx is done.
func (d *KeyedDispatcher[K]) Shutdown(ctx context.Context) error {
	d.closeMu.Lock()
	reg := d.registry.Load()
	if !d.closed.Load() {
		d.closed.Store(true)
		if reg != nil {
			reg.each(func(_ K, l *lane) {
				l.close()
			})
		}
		close(d.stop)
		d.opts.logger.Info("dispatcher shutting down", slog.String("dispatcher", d.opts.name))
	}
	d.closeMu.Unlock()

	if reg == nil {
		return nil
	}

	var lanes []*lane
	reg.each(func(_ K, l *lane) {
		lanes = append(lanes, l)
	})

	for _, l := range lanes {
		select {
		case <-l.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
