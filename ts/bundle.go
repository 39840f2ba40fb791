package ts

import "github.com/reactiveflow/tsgraph/engtime"

// Bundle is the TSB output: an ordered, named-field schema fixed at
// construction. Modified/Valid/AllValid aggregate over the declared
// children, as the data model requires.
type Bundle struct {
	Base
	names  []string
	fields map[string]Output
}

// NewBundle constructs a bundle with the given field names in schema order.
// Fields are attached afterwards with SetField so that self-referential
// wiring (a field whose output needs a pointer back to the bundle) is
// possible during graph build.
func NewBundle(path string, names []string) *Bundle {
	return &Bundle{
		Base:   NewBase(path),
		names:  names,
		fields: make(map[string]Output, len(names)),
	}
}

// SetField attaches the output for a declared field and wires its parent
// pointer back to this bundle.
func (b *Bundle) SetField(name string, out Output) {
	b.fields[name] = out
	out.setParent(b)
}

func (b *Bundle) Field(name string) Output { return b.fields[name] }
func (b *Bundle) FieldNames() []string     { return b.names }

func (b *Bundle) Kind() Kind { return KindBundle }

func (b *Bundle) Valid() bool {
	for _, n := range b.names {
		if f := b.fields[n]; f != nil && f.Valid() {
			return true
		}
	}
	return false
}

func (b *Bundle) AllValid() bool {
	for _, n := range b.names {
		f := b.fields[n]
		if f == nil || !f.Valid() {
			return false
		}
	}
	return true
}

// onChildModified implements the parent-aggregation hook that Base.stamp
// calls on a child's tick.
func (b *Bundle) onChildModified(t engtime.Time) {
	b.stamp(t)
}

// Delta returns the set of field names that changed during the cycle at t.
func (b *Bundle) Delta(t engtime.Time) map[string]Output {
	d := make(map[string]Output)
	for _, n := range b.names {
		if f := b.fields[n]; f != nil && f.Modified(t) {
			d[n] = f
		}
	}
	return d
}

func (b *Bundle) MarkModified(t engtime.Time) { b.stamp(t) }

func (b *Bundle) MarkInvalid(t engtime.Time) {
	for _, n := range b.names {
		if f := b.fields[n]; f != nil {
			f.MarkInvalid(t)
		}
	}
	b.invalidate(t)
}
