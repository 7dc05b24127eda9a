package workqueue

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTaskPanicked, e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrTaskPanicked
}

// Failure describes a task that returned an error or panicked.
type Failure struct {
	Lane     string
	WorkerID uuid.UUID
	Err      error
	Metadata map[string]any
	Age      time.Duration
	Time     time.Time
}

// FailureHandler defines how failed tasks are reported.
// It runs on the worker goroutine, so a slow handler delays the lane.
type FailureHandler func(f Failure)

// safeExecute runs the task and turns a panic into a *PanicError.
func safeExecute(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return t.Run()
}
