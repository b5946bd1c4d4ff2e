package utils

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular FIFO. Appending to a full buffer
// overwrites the oldest element. Not safe for concurrent use.
// -----------------------------------------------------------------------------

type RingBuffer[T any] struct {
	data     []T
	capacity int
	head     int // Oldest element
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = 1000 // Default reasonable size
	}

	return &RingBuffer[T]{
		data:     make([]T, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds item at the tail. When the buffer was full the evicted oldest
// element is returned with true.
func (rb *RingBuffer[T]) Append(item T) (T, bool) {
	var evicted T
	dropped := false

	if rb.size == rb.capacity {
		evicted = rb.data[rb.head]
		dropped = true
		rb.data[rb.head] = item
		rb.head = (rb.head + 1) % rb.capacity
		return evicted, dropped
	}

	rb.data[(rb.head+rb.size)%rb.capacity] = item
	rb.size++
	return evicted, dropped
}

// -----------------------------------------------------------------------------

// PopFront removes and returns up to n elements from the front, oldest first.
func (rb *RingBuffer[T]) PopFront(n int) []T {
	if n > rb.size {
		n = rb.size
	}
	if n <= 0 {
		return []T{}
	}

	var zero T
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = rb.data[rb.head]
		rb.data[rb.head] = zero
		rb.head = (rb.head + 1) % rb.capacity
	}
	rb.size -= n
	if rb.size == 0 {
		rb.head = 0
	}
	return result
}

// -----------------------------------------------------------------------------

// GetLatest returns the n newest elements, oldest first.
func (rb *RingBuffer[T]) GetLatest(n int) []T {
	if rb.size == 0 || n <= 0 {
		return []T{}
	}
	if n > rb.size {
		n = rb.size
	}

	result := make([]T, n)
	start := rb.head + rb.size - n
	for i := 0; i < n; i++ {
		result[i] = rb.data[(start+i)%rb.capacity]
	}
	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all data in insertion order (oldest to newest)
func (rb *RingBuffer[T]) GetAll() []T {
	return rb.GetLatest(rb.size)
}

// -----------------------------------------------------------------------------

// Filter keeps only the elements for which keep returns true, preserving order.
// It returns the number of elements removed.
func (rb *RingBuffer[T]) Filter(keep func(T) bool) int {
	all := rb.GetAll()
	rb.Clear()
	for _, item := range all {
		if keep(item) {
			rb.Append(item)
		}
	}
	return len(all) - rb.size
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer[T]) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity
func (rb *RingBuffer[T]) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer[T]) Clear() {
	var zero T
	for i := range rb.data {
		rb.data[i] = zero
	}
	rb.head = 0
	rb.size = 0
}
