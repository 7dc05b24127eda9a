package workqueue

import "errors"

var (
	// ErrNotInitialized is returned when a dispatcher is used before Initialize
	ErrNotInitialized = errors.New("dispatcher is not initialized")

	// ErrUnknownKey is returned when enqueuing to a key that was never registered with InitializeKey
	ErrUnknownKey = errors.New("key is not initialized")

	// ErrNilTask is returned when a nil task is enqueued
	ErrNilTask = errors.New("task is nil")

	// ErrClosed is returned when the dispatcher has been shut down
	ErrClosed = errors.New("dispatcher is shut down")

	// ErrTaskPanicked is wrapped by PanicError for tasks that panicked
	ErrTaskPanicked = errors.New("task panicked")

	// ErrInvalidConfig is returned when configuration cannot be parsed or fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
)
