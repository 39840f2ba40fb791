package ts

import "github.com/reactiveflow/tsgraph/engtime"

// ringBuffer is a generic growable circular queue, grounded on the
// teacher's CircularQueue: a slice used as a ring with head/size tracking
// so that pushes and evictions are O(1) amortized.
type ringBuffer[T any] struct {
	buf  []T
	head int
	size int
}

func newRingBuffer[T any](capHint int) *ringBuffer[T] {
	if capHint < 1 {
		capHint = 1
	}
	return &ringBuffer[T]{buf: make([]T, capHint)}
}

func (q *ringBuffer[T]) Len() int { return q.size }

func (q *ringBuffer[T]) at(i int) T {
	return q.buf[(q.head+i)%len(q.buf)]
}

func (q *ringBuffer[T]) grow() {
	nc := len(q.buf) * 2
	nb := make([]T, nc)
	for i := 0; i < q.size; i++ {
		nb[i] = q.at(i)
	}
	q.buf = nb
	q.head = 0
}

func (q *ringBuffer[T]) PushBack(v T) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = v
	q.size++
}

func (q *ringBuffer[T]) PopFront() T {
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v
}

type windowEntry[T any] struct {
	t engtime.Time
	v T
}

// Window is the TSW[T] output: a rolling buffer over the last N ticks
// (count-based) or the last D duration (time-based), validity reached only
// once the minimum occupancy is met. Exactly one of byCount/byDuration
// applies to a given instance.
type Window[T any] struct {
	Base
	buf      *ringBuffer[windowEntry[T]]
	minSize  int
	byCount  bool
	count    int
	duration engtime.Delta
}

// NewCountWindow builds a window that retains the last size ticks and
// becomes valid once minSize of them have arrived.
func NewCountWindow[T any](path string, size, minSize int) *Window[T] {
	return &Window[T]{
		Base:    NewBase(path),
		buf:     newRingBuffer[windowEntry[T]](size),
		minSize: minSize,
		byCount: true,
		count:   size,
	}
}

// NewDurationWindow builds a window that retains ticks within the trailing
// duration and becomes valid once minSize of them are present.
func NewDurationWindow[T any](path string, duration engtime.Delta, minSize int) *Window[T] {
	return &Window[T]{
		Base:     NewBase(path),
		buf:      newRingBuffer[windowEntry[T]](16),
		minSize:  minSize,
		byCount:  false,
		duration: duration,
	}
}

func (w *Window[T]) Kind() Kind { return KindWindow }

func (w *Window[T]) Valid() bool    { return w.buf.Len() >= w.minSize }
func (w *Window[T]) AllValid() bool { return w.Valid() }

// Len reports the number of entries currently retained.
func (w *Window[T]) Len() int { return w.buf.Len() }

// Values returns the retained values, oldest first.
func (w *Window[T]) Values() []T {
	out := make([]T, w.buf.Len())
	for i := range out {
		out[i] = w.buf.at(i).v
	}
	return out
}

// Push appends v at time t, evicting entries that fall outside the window
// policy, and marks the output modified.
func (w *Window[T]) Push(t engtime.Time, v T) {
	w.buf.PushBack(windowEntry[T]{t: t, v: v})
	if w.byCount {
		for w.buf.Len() > w.count {
			w.buf.PopFront()
		}
	} else {
		floor := t.Add(-w.duration)
		for w.buf.Len() > 0 && w.buf.at(0).t.Before(floor) {
			w.buf.PopFront()
		}
	}
	w.stamp(t)
}

func (w *Window[T]) MarkModified(t engtime.Time) { w.stamp(t) }

func (w *Window[T]) MarkInvalid(t engtime.Time) {
	w.buf = newRingBuffer[windowEntry[T]](len(w.buf.buf))
	w.invalidate(t)
}
