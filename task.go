package workqueue

// Task is a unit of work executed on a lane's worker.
// A returned error is reported as a failure and does not affect later tasks.
type Task interface {
	Run() error
}

// TaskFunc adapts a plain function to Task.
type TaskFunc func() error

func (f TaskFunc) Run() error {
	return f()
}

// Func wraps an argument-less function.
func Func(fn func()) Task {
	if fn == nil {
		return nil
	}
	return TaskFunc(func() error {
		fn()
		return nil
	})
}

// Bind pairs a typed callable with the argument it will be invoked with.
// The argument is captured when Bind is called.
func Bind[T any](fn func(T), arg T) Task {
	if fn == nil {
		return nil
	}
	return TaskFunc(func() error {
		fn(arg)
		return nil
	})
}

// BindErr is Bind for callables that report an error.
func BindErr[T any](fn func(T) error, arg T) Task {
	if fn == nil {
		return nil
	}
	return TaskFunc(func() error {
		return fn(arg)
	})
}

func isNilTask(t Task) bool {
	if t == nil {
		return true
	}
	f, ok := t.(TaskFunc)
	return ok && f == nil
}
