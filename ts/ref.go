package ts

import "github.com/reactiveflow/tsgraph/engtime"

// Reference is the value carried by a REF output: either peered to a
// concrete output, bound to an unbound structural placeholder awaiting a
// peer, or empty. Exactly one of the three states holds at a time.
type Reference struct {
	peer   Output
	unbind bool
}

func EmptyReference() Reference          { return Reference{} }
func PeeredReference(o Output) Reference { return Reference{peer: o} }
func UnboundReference() Reference        { return Reference{unbind: true} }

func (r Reference) IsEmpty() bool   { return r.peer == nil && !r.unbind }
func (r Reference) IsUnbound() bool { return r.unbind }
func (r Reference) IsPeered() bool  { return r.peer != nil }
func (r Reference) Peer() Output    { return r.peer }

// Ref is the REF output: a value-like output whose value is a Reference
// rather than application data. Re-peering retargets downstream bindings
// without the graph being rebuilt, so Ref keeps its own observer list
// distinct from Base's ordinary value-subscriber list: observers of a REF
// care about re-peering events, not about the peer's own ticks.
type Ref struct {
	Base
	value     Reference
	observers []Subscriber
}

func NewRef(path string) *Ref {
	return &Ref{Base: NewBase(path), value: EmptyReference()}
}

func (r *Ref) Kind() Kind     { return KindRef }
func (r *Ref) Valid() bool    { return r.ValidLeaf() }
func (r *Ref) AllValid() bool { return r.Valid() }

func (r *Ref) Value() Reference { return r.value }

// ObserveRebind registers s to be notified whenever this REF re-peers,
// independent of the ordinary subscriber list used for value propagation.
func (r *Ref) ObserveRebind(s Subscriber) {
	r.observers = append(r.observers, s)
}

// Rebind sets a new peer (or unbinds/empties) at time t and notifies both
// the ordinary subscribers and the rebind observers.
func (r *Ref) Rebind(t engtime.Time, ref Reference) {
	r.value = ref
	r.stamp(t)
	for _, o := range r.observers {
		o.Notify(t)
	}
}

func (r *Ref) MarkModified(t engtime.Time) { r.stamp(t) }

func (r *Ref) MarkInvalid(t engtime.Time) {
	r.value = EmptyReference()
	r.invalidate(t)
}
