package ts

import "github.com/reactiveflow/tsgraph/engtime"

// Signal is the SIGNAL output: presence-only, no data. Value reports
// whether it ticked in the current cycle.
type Signal struct {
	Base
}

func NewSignal(path string) *Signal {
	return &Signal{Base: NewBase(path)}
}

func (s *Signal) Kind() Kind     { return KindSignal }
func (s *Signal) Valid() bool    { return s.ValidLeaf() }
func (s *Signal) AllValid() bool { return s.Valid() }

// Value reflects modified-this-cycle, the only observable state a SIGNAL
// carries.
func (s *Signal) Value(t engtime.Time) bool { return s.Modified(t) }

func (s *Signal) MarkModified(t engtime.Time) { s.stamp(t) }
func (s *Signal) MarkInvalid(t engtime.Time)  { s.invalidate(t) }
