// Package workqueue provides in-process FIFO work lanes executed on dedicated
// background workers.
//
// Two dispatchers are available:
//
//   - Dispatcher: a single lane with one worker. Every task submitted to it
//     runs in submission order, one at a time.
//
//   - KeyedDispatcher: one lane per key. Tasks that share a key run in
//     submission order on that key's worker, while different keys run
//     concurrently and never wait on each other.
//
// # Lifecycle
//
// Dispatchers are explicitly constructed values. Initialize must be called
// before anything is enqueued; for the keyed variant every key must also be
// registered with InitializeKey, which lazily starts exactly one worker for
// that key. Enqueuing before initialization, or to a key that was never
// registered, returns an error instead of dropping the task.
//
//	d := workqueue.NewKeyed[string]()
//	d.Initialize()
//	_ = d.InitializeKey("user:123")
//
//	_ = d.Enqueue("user:123", workqueue.Bind(sendEmail, "welcome"))
//	_ = d.EnqueueFunc("user:123", func() {
//		fmt.Println("runs after the email task")
//	})
//
// # Failures
//
// A task that returns an error or panics never stops its worker. The failure
// is logged through the configured slog.Logger and handed to the optional
// FailureHandler, and the worker moves on to the next queued task.
//
// # Limits
//
// Lanes are unbounded and are never torn down. There is no cancellation,
// priority or backpressure: a task that never returns stalls its own lane
// (and, for Dispatcher, every task behind it). Shutdown stops intake and
// waits for the queued tasks to drain, it does not discard them.
package workqueue
