package dynamo

// Ring is a bounded FIFO. Pushing past capacity evicts the oldest item.
type Ring[T any] struct {
	buf   []T
	head  int
	count int
}

// NewRing returns an empty ring. A capacity below 1 is treated as 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

func (r *Ring[T]) Len() int { return r.count }
func (r *Ring[T]) Cap() int { return len(r.buf) }

func (r *Ring[T]) Push(v T) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = v
		r.count++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// At returns the i-th retained item, oldest first.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.count {
		panic("dynamo: ring index out of range")
	}
	return r.buf[(r.head+i)%len(r.buf)]
}

func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.At(r.count - 1), true
}

// Slice copies the retained items, oldest first.
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.count)
	for i := range out {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head = 0
	r.count = 0
}

// Resize changes the capacity, keeping the newest items that still fit.
func (r *Ring[T]) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	items := r.Slice()
	if len(items) > capacity {
		items = items[len(items)-capacity:]
	}
	r.buf = make([]T, capacity)
	copy(r.buf, items)
	r.head = 0
	r.count = len(items)
}
