package workqueue

import (
	"log/slog"
)

// DefaultShards is the number of registry shards used by KeyedDispatcher.
const DefaultShards = 32

// Option configures a Dispatcher or KeyedDispatcher.
type Option func(*options)

type options struct {
	name      string
	shards    int
	logger    *slog.Logger
	onFailure FailureHandler
}

func defaultOptions() *options {
	return &options{
		name:   "workqueue",
		shards: DefaultShards,
		logger: slog.Default(),
	}
}

func applyOptions(opts ...Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithName sets the dispatcher name used in logs and profiler labels.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithShards sets how many independently locked shards the key registry uses.
// Values below one are ignored.
func WithShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}

// WithLogger sets the logger for the dispatcher and its workers.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFailureHandler registers a callback invoked on the worker goroutine
// for every task that returns an error or panics.
func WithFailureHandler(h FailureHandler) Option {
	return func(o *options) {
		o.onFailure = h
	}
}

// EnqueueOption represents an option for enqueuing items
type EnqueueOption func(*EnqueueOptions)

// EnqueueOptions contains all the options for enqueuing an item
type EnqueueOptions struct {
	metadata map[string]any
}

// WithMetadata attaches metadata to the queued item. It is reported with
// the item's Failure if the task fails.
func WithMetadata(metadata map[string]any) EnqueueOption {
	return func(opts *EnqueueOptions) {
		if opts.metadata == nil {
			opts.metadata = make(map[string]any)
		}
		for k, v := range metadata {
			opts.metadata[k] = v
		}
	}
}

// applyEnqueueOptions applies all options to the default options
func applyEnqueueOptions(opts ...EnqueueOption) *EnqueueOptions {
	options := &EnqueueOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
