package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	workqueue "github.com/your-username/go-work-queue"
)

func main() {
	cfg, err := workqueue.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	opts, err := cfg.Options(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	opts = append(opts, workqueue.WithFailureHandler(func(f workqueue.Failure) {
		fmt.Printf("   ❌ lane %s failed after %v: %v (metadata: %v)\n", f.Lane, f.Age, f.Err, f.Metadata)
	}))

	queues := workqueue.NewKeyed[string](opts...)
	queues.Initialize()

	fmt.Println("🚀 Go Work Queue - Example Usage")
	fmt.Println("================================")

	for _, key := range []string{"user:123", "user:same", "order:456"} {
		if err := queues.InitializeKey(key); err != nil {
			fmt.Println("Error initializing key:", err)
			return
		}
	}

	// Basic enqueue
	fmt.Println("\n1. Basic enqueue:")
	if err := queues.EnqueueFunc("user:123", func() {
		fmt.Println("   ✅ Processing user 123")
	}); err != nil {
		fmt.Println("Error enqueuing:", err)
	}

	// Typed argument
	fmt.Println("\n2. Typed argument:")
	if err := queues.Enqueue("order:456", workqueue.Bind(func(total float64) {
		fmt.Printf("   ✅ Processing order 456 (total %.2f)\n", total)
	}, 99.5)); err != nil {
		fmt.Println("Error enqueuing:", err)
	}

	// Multiple items with same key (will be processed sequentially)
	fmt.Println("\n3. Same key sequential processing:")
	for i := 1; i <= 3; i++ {
		if err := queues.Enqueue("user:same", workqueue.Bind(func(id int) {
			fmt.Printf("   ✅ Processing user:same - task %d\n", id)
			time.Sleep(100 * time.Millisecond) // Simulate work
		}, i)); err != nil {
			fmt.Println("Error enqueuing:", err)
		}
	}

	// Multiple keys (will be processed concurrently)
	fmt.Println("\n4. Different keys concurrent processing:")
	for i := 1; i <= 3; i++ {
		key := fmt.Sprintf("concurrent:%d", i)
		if err := queues.InitializeKey(key); err != nil {
			fmt.Println("Error initializing key:", err)
			continue
		}
		if err := queues.Enqueue(key, workqueue.Bind(func(id int) {
			fmt.Printf("   ✅ Processing concurrent:%d\n", id)
			time.Sleep(50 * time.Millisecond) // Simulate work
		}, i)); err != nil {
			fmt.Println("Error enqueuing:", err)
		}
	}

	// Failures are reported and the lane keeps going
	fmt.Println("\n5. Failing task with metadata:")
	if err := queues.Enqueue("order:456", workqueue.BindErr(func(id int) error {
		return errors.New("payment declined")
	}, 456), workqueue.WithMetadata(map[string]any{"retry": 3})); err != nil {
		fmt.Println("Error enqueuing:", err)
	}
	if err := queues.EnqueueFunc("order:456", func() {
		fmt.Println("   ✅ order:456 still processing after a failure")
	}); err != nil {
		fmt.Println("Error enqueuing:", err)
	}

	// Unknown keys are rejected
	fmt.Println("\n6. Unknown key:")
	if err := queues.EnqueueFunc("never:registered", func() {}); err != nil {
		fmt.Println("   ⚠️ ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := queues.Shutdown(ctx); err != nil {
		slog.Error("shutdown", slog.String("error", err.Error()))
	}

	stats := queues.Stats()
	fmt.Println("\n📊 Statistics:")
	fmt.Printf("   Lanes: %d, workers: %d\n", stats.Lanes, stats.Workers)
	fmt.Printf("   Executed: %d, failed: %d, pending: %d\n", stats.Executed, stats.Failed, stats.Pending)

	fmt.Println("\n🎉 Example completed!")
}
