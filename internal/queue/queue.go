// Package queue buffers rows for batched database inserts.
package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO buffer.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// GetAndEmpty returns all items and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}

// Requeue puts items back at the front of the queue, ahead of items added meanwhile.
func (q *Queue[T]) Requeue(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append(make([]T, 0, len(items)+len(q.items)), items...), q.items...)
}

// InBatches hands items to fn in order, at most size at a time, and stops at the first error.
func InBatches[T any](items []T, size int, fn func(batch []T) error) error {
	if size < 1 {
		size = 1
	}
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		if err := fn(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}
