package ts

import "github.com/reactiveflow/tsgraph/engtime"

// Input is the node-facing handle on a bound output: the thing a node
// body actually reads from. Binding is indirected through Input rather
// than nodes holding Output pointers directly so that REF re-peering can
// retarget a node's data source without the node itself being touched.
//
// An input is active or passive. Active inputs subscribe to their bound
// output and cause the owning node to be scheduled when it ticks; passive
// inputs still see the output's current value and validity but do not
// drive scheduling. Nested inputs (a field of a bundle input, say) bubble
// activation up to their parent; MakePassive does not bubble, so a parent
// stays active after its last active field turns passive.
type Input struct {
	path   string
	bound  Output
	active bool
	owner  Subscriber
	parent *Input
}

func NewInput(path string, owner Subscriber) *Input {
	return &Input{path: path, owner: owner}
}

func (in *Input) Path() string { return in.path }

func (in *Input) Bound() Output { return in.bound }

func (in *Input) Valid() bool {
	return in.bound != nil && in.bound.Valid()
}

func (in *Input) AllValid() bool {
	return in.bound != nil && in.bound.AllValid()
}

func (in *Input) Modified(t engtime.Time) bool {
	return in.bound != nil && in.bound.Modified(t)
}

// BindOutput peers this input to out. If the input is active, it
// subscribes immediately; an already-bound input is unsubscribed from its
// prior peer first.
func (in *Input) BindOutput(out Output) {
	if in.bound != nil && in.active {
		in.bound.Unsubscribe(in.owner)
	}
	in.bound = out
	if in.bound != nil && in.active {
		in.bound.Subscribe(in.owner)
	}
}

// UnbindOutput clears the binding, unsubscribing if active.
func (in *Input) UnbindOutput() {
	if in.bound != nil && in.active {
		in.bound.Unsubscribe(in.owner)
	}
	in.bound = nil
}

// MakeActive subscribes to the bound output (if any) and marks this input,
// and transitively its parent chain, active. A parent only needs to
// subscribe to its own children's outputs in a bundle/list/dict node body;
// bubbling here just keeps the active flag consistent for introspection.
func (in *Input) MakeActive() {
	if in.active {
		return
	}
	in.active = true
	if in.bound != nil {
		in.bound.Subscribe(in.owner)
	}
	if in.parent != nil {
		in.parent.MakeActive()
	}
}

// MakePassive unsubscribes from the bound output (if any) and marks this
// input passive. It does not touch the parent: a parent may still have
// other active children.
func (in *Input) MakePassive() {
	if !in.active {
		return
	}
	in.active = false
	if in.bound != nil {
		in.bound.Unsubscribe(in.owner)
	}
}

func (in *Input) IsActive() bool { return in.active }

// SetParent wires this input as a nested field of parent, so that a future
// MakeActive on this input also activates the parent.
func (in *Input) SetParent(parent *Input) { in.parent = parent }
