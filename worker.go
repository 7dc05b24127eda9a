package workqueue

import (
	"context"
	"errors"
	"log/slog"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// lane is one FIFO queue together with the single worker that drains it.
// Items pushed to a lane are executed in push order, one at a time.
type lane struct {
	name      string
	id        uuid.UUID
	queue     *queue
	wake      chan struct{} // capacity 1: a signal sent while the worker is busy is kept
	stop      <-chan struct{}
	done      chan struct{}
	logger    *slog.Logger
	onFailure FailureHandler

	// closeMu orders pushes against close; shared by producers of this lane only.
	closeMu sync.RWMutex
	closed  bool

	executed atomic.Uint64
	failed   atomic.Uint64
}

func newLane(name string, opts *options, stop <-chan struct{}) *lane {
	id := uuid.New()
	return &lane{
		name:      name,
		id:        id,
		queue:     newQueue(),
		wake:      make(chan struct{}, 1),
		stop:      stop,
		done:      make(chan struct{}),
		onFailure: opts.onFailure,
		logger: opts.logger.With(
			slog.String("dispatcher", opts.name),
			slog.String("lane", name),
			slog.String("worker_id", id.String()),
		),
	}
}

// start launches the worker goroutine. It must be called exactly once.
func (l *lane) start() {
	go func() {
		defer close(l.done)
		labels := pprof.Labels("workqueue.lane", l.name)
		pprof.Do(context.Background(), labels, func(context.Context) {
			l.run()
		})
	}()
	l.logger.Debug("worker started")
}

// push appends the item and wakes the worker.
func (l *lane) push(item queueItem) {
	l.queue.push(item)
	l.signal()
}

// tryPush is push that refuses items once the lane has been closed.
func (l *lane) tryPush(item queueItem) bool {
	l.closeMu.RLock()
	defer l.closeMu.RUnlock()
	if l.closed {
		return false
	}
	l.push(item)
	return true
}

// close stops intake. Every tryPush that succeeded has returned by the
// time close returns, so the worker may drain once stop is closed.
func (l *lane) close() {
	l.closeMu.Lock()
	l.closed = true
	l.closeMu.Unlock()
}

func (l *lane) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop. It only blocks after observing an empty queue;
// since push completes before signal, an item is either seen by the next pop
// or its signal is waiting in the wake channel.
func (l *lane) run() {
	for {
		if item, ok := l.queue.pop(); ok {
			l.execute(item)
			continue
		}

		select {
		case <-l.wake:
		case <-l.stop:
			l.drain()
			return
		}
	}
}

// drain executes whatever is left once intake has stopped.
func (l *lane) drain() {
	l.logger.Debug("draining queue before shutdown", slog.Int("pending", l.queue.len()))
	for {
		item, ok := l.queue.pop()
		if !ok {
			l.logger.Debug("shutdown complete",
				slog.Uint64("executed", l.executed.Load()),
				slog.Uint64("failed", l.failed.Load()))
			return
		}
		l.execute(item)
	}
}

func (l *lane) execute(item queueItem) {
	err := safeExecute(item.task)
	if err == nil {
		l.executed.Add(1)
		l.logger.Debug("task completed", slog.Duration("age", item.age()))
		return
	}

	l.failed.Add(1)
	f := Failure{
		Lane:     l.name,
		WorkerID: l.id,
		Err:      err,
		Metadata: item.metadata,
		Age:      item.age(),
		Time:     time.Now(),
	}

	attrs := []any{slog.String("error", err.Error()), slog.Duration("age", f.Age)}
	var pe *PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, slog.String("stack", string(pe.Stack)))
		l.logger.Error("panic recovered in task", attrs...)
	} else {
		l.logger.Error("task failed", attrs...)
	}

	l.report(f)
}

// report hands the failure to the handler. A panicking handler is logged
// and swallowed so the worker keeps running.
func (l *lane) report(f Failure) {
	if l.onFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic recovered in failure handler", slog.Any("panic", r))
		}
	}()
	l.onFailure(f)
}

func (l *lane) stats() Stats {
	return Stats{
		Lanes:    1,
		Workers:  1,
		Pending:  l.queue.len(),
		Executed: l.executed.Load(),
		Failed:   l.failed.Load(),
	}
}

// Stats is a point-in-time snapshot of a dispatcher.
type Stats struct {
	Lanes    int
	Workers  int
	Pending  int
	Executed uint64
	Failed   uint64
}

func (s Stats) add(o Stats) Stats {
	s.Lanes += o.Lanes
	s.Workers += o.Workers
	s.Pending += o.Pending
	s.Executed += o.Executed
	s.Failed += o.Failed
	return s
}
