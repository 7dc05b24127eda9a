package workqueue

import (
	"sync/atomic"
)

type node struct {
	next atomic.Pointer[node]
	item queueItem
}

// queue is an unbounded multi-producer single-consumer FIFO.
// push may be called from any goroutine; pop only from the lane's worker.
//
// Producers swap themselves into head and then link the previous node. Until
// that link is stored the consumer sees the queue as ending before the new
// node, so pop can report empty while a push is in progress. Callers signal
// the worker after push returns, which covers that window.
type queue struct {
	head atomic.Pointer[node]
	tail *node // consumer only; always a consumed or stub node
	size atomic.Int64
}

func newQueue() *queue {
	stub := &node{}
	q := &queue{tail: stub}
	q.head.Store(stub)
	return q
}

func (q *queue) push(item queueItem) {
	n := &node{item: item}
	q.size.Add(1)
	prev := q.head.Swap(n)
	prev.next.Store(n)
}

func (q *queue) pop() (queueItem, bool) {
	next := q.tail.next.Load()
	if next == nil {
		return queueItem{}, false
	}
	q.tail = next
	item := next.item
	next.item = queueItem{}
	q.size.Add(-1)
	return item, true
}

func (q *queue) len() int {
	if n := q.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}
