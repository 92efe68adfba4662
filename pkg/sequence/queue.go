package sequence

// Queue is a FIFO queue backed by a slice.
// It is not safe for concurrent use; callers guard it themselves.
type Queue[T any] struct {
	items []T
	head  int
}

// NewQueue creates a queue with room for capacity items before it grows.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue[T]{items: make([]T, 0, capacity)}
}

// Enqueue appends value to the tail of the queue.
func (q *Queue[T]) Enqueue(value T) {
	q.items = append(q.items, value)
}

// Dequeue removes and returns the head of the queue.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}

	value := q.items[q.head]
	q.items[q.head] = zero // release the reference
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 32 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return value, true
}

// Peek returns the head of the queue without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if q.head >= len(q.items) {
		var zero T
		return zero, false
	}
	return q.items[q.head], true
}

// Drain removes every queued value and returns them in FIFO order.
func (q *Queue[T]) Drain() []T {
	if q.head >= len(q.items) {
		q.Reset()
		return nil
	}

	out := make([]T, len(q.items)-q.head)
	copy(out, q.items[q.head:])
	q.Reset()
	return out
}

// Reset drops every queued value but keeps the allocated capacity.
func (q *Queue[T]) Reset() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

func (q *Queue[T]) Len() int {
	return len(q.items) - q.head
}

func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}
