package ts

import "github.com/reactiveflow/tsgraph/engtime"

// Scalar is the TS[T] output: an atomic value of element type T. Its delta
// equals its value, per the data model.
type Scalar[T any] struct {
	Base
	value T
}

func NewScalar[T any](path string) *Scalar[T] {
	return &Scalar[T]{Base: NewBase(path)}
}

func (s *Scalar[T]) Kind() Kind         { return KindScalar }
func (s *Scalar[T]) Valid() bool        { return s.ValidLeaf() }
func (s *Scalar[T]) AllValid() bool     { return s.Valid() }
func (s *Scalar[T]) Value() T           { return s.value }
func (s *Scalar[T]) Delta() T           { return s.value }
func (s *Scalar[T]) MarkInvalid(t engtime.Time) {
	var zero T
	s.value = zero
	s.invalidate(t)
}

// ApplyResult sets the value and marks the output modified at t; a no-op
// if v is the zero value of an option-like wrapper is the caller's
// responsibility (absent results should call MarkInvalid instead).
func (s *Scalar[T]) ApplyResult(t engtime.Time, v T) {
	s.value = v
	s.stamp(t)
}

func (s *Scalar[T]) MarkModified(t engtime.Time) { s.stamp(t) }

// CopyFromOutput copies the current value from another Scalar of the same
// element type; an invalid source invalidates the destination.
func (s *Scalar[T]) CopyFromOutput(t engtime.Time, other *Scalar[T]) {
	if !other.Valid() {
		s.MarkInvalid(t)
		return
	}
	s.ApplyResult(t, other.Value())
}
