package ts

import "github.com/reactiveflow/tsgraph/engtime"

// List is the TSL output: a fixed-arity, homogeneous sequence of children.
// Aggregation mirrors Bundle; the difference is purely that fields are
// addressed by index rather than by name.
type List struct {
	Base
	elems []Output
}

// NewList constructs a list with n elements, initially unset. Elements are
// attached afterwards with SetElem.
func NewList(path string, n int) *List {
	return &List{Base: NewBase(path), elems: make([]Output, n)}
}

// SetElem attaches the output for index i and wires its parent pointer
// back to this list.
func (l *List) SetElem(i int, out Output) {
	l.elems[i] = out
	out.setParent(l)
}

func (l *List) Elem(i int) Output { return l.elems[i] }
func (l *List) Len() int          { return len(l.elems) }

func (l *List) Kind() Kind { return KindList }

func (l *List) Valid() bool {
	for _, e := range l.elems {
		if e != nil && e.Valid() {
			return true
		}
	}
	return false
}

func (l *List) AllValid() bool {
	for _, e := range l.elems {
		if e == nil || !e.Valid() {
			return false
		}
	}
	return true
}

func (l *List) onChildModified(t engtime.Time) { l.stamp(t) }

// Delta returns the indices of elements that changed during the cycle at t.
func (l *List) Delta(t engtime.Time) []int {
	var d []int
	for i, e := range l.elems {
		if e != nil && e.Modified(t) {
			d = append(d, i)
		}
	}
	return d
}

func (l *List) MarkModified(t engtime.Time) { l.stamp(t) }

func (l *List) MarkInvalid(t engtime.Time) {
	for _, e := range l.elems {
		if e != nil {
			e.MarkInvalid(t)
		}
	}
	l.invalidate(t)
}
