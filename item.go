package workqueue

import (
	"time"
)

// queueItem is a task waiting in a lane together with its enqueue metadata.
type queueItem struct {
	task        Task
	metadata    map[string]any
	enqueueTime time.Time
}

func newQueueItem(task Task, opts ...EnqueueOption) queueItem {
	options := applyEnqueueOptions(opts...)

	// Copy metadata to avoid external modifications
	var itemMetadata map[string]any
	if options.metadata != nil {
		itemMetadata = make(map[string]any, len(options.metadata))
		for k, v := range options.metadata {
			itemMetadata[k] = v
		}
	}

	return queueItem{
		task:        task,
		metadata:    itemMetadata,
		enqueueTime: time.Now(),
	}
}

// age returns how long the item has been in the queue
func (qi *queueItem) age() time.Duration {
	return time.Since(qi.enqueueTime)
}
