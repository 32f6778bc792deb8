package queue

import "fmt"

type cursor int

const (
	getCursor cursor = iota + 1
	putCursor
)

// Queue is a fixed capacity FIFO backed by a ring of slots.
// Items are never reallocated or moved; Put rejects items once the ring is full.
type Queue[T any] struct {
	slots []T
	get   int
	put   int
	count int
}

// New creates a queue holding at most capacity items
func New[T any](capacity int) *Queue[T] {
	if capacity < 0 {
		panic(fmt.Sprintf("queue: negative capacity %d", capacity))
	}
	return &Queue[T]{
		slots: make([]T, capacity),
	}
}

// Put stores item at the tail. It returns false and leaves the queue
// untouched when the queue is full.
func (q *Queue[T]) Put(item T) bool {
	if q.IsFull() {
		return false
	}
	q.slots[q.put] = item
	q.advance(putCursor)
	return true
}

// Get removes and returns the head item. ok is false when the queue is empty.
func (q *Queue[T]) Get() (item T, ok bool) {
	if q.IsEmpty() {
		return item, false
	}
	item = q.slots[q.get]
	var zero T
	q.slots[q.get] = zero
	q.advance(getCursor)
	return item, true
}

// Peek returns the head item without removing it
func (q *Queue[T]) Peek() (item T, ok bool) {
	if q.IsEmpty() {
		return item, false
	}
	return q.slots[q.get], true
}

// IsEmpty reports whether the queue holds no items
func (q *Queue[T]) IsEmpty() bool {
	return q.count == 0
}

// IsFull reports whether Put would reject the next item.
// A zero capacity queue is both empty and full.
func (q *Queue[T]) IsFull() bool {
	return q.count == len(q.slots)
}

// Len returns the number of stored items
func (q *Queue[T]) Len() int {
	return q.count
}

// Cap returns the fixed capacity
func (q *Queue[T]) Cap() int {
	return len(q.slots)
}

// Reset drops every stored item, keeping the capacity.
func (q *Queue[T]) Reset() {
	clear(q.slots)
	q.get, q.put, q.count = 0, 0, 0
}

func (q *Queue[T]) advance(c cursor) {
	var pos *int
	switch c {
	case getCursor:
		pos = &q.get
		q.count--
	case putCursor:
		pos = &q.put
		q.count++
	default:
		panic(fmt.Sprintf("queue: unknown cursor kind %d", c))
	}
	*pos++
	if *pos == len(q.slots) {
		*pos = 0
	}
}
