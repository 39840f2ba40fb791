// Package ts implements the time-series value model described in the data
// model: typed output/input containers (scalar, bundle, list, set, dict,
// window, reference, signal) with modification tracking, delta views and a
// subscriber-based notification fabric.
//
// Every output and input is mutated only by the single evaluation goroutine
// that owns its graph; there is no internal locking here, matching the
// single-threaded evaluation core described in the concurrency model.
package ts

import "github.com/reactiveflow/tsgraph/engtime"

// Kind is the closed sum over time-series shapes.
type Kind int

const (
	KindScalar Kind = iota
	KindBundle
	KindList
	KindSet
	KindDict
	KindWindow
	KindRef
	KindSignal
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "TS"
	case KindBundle:
		return "TSB"
	case KindList:
		return "TSL"
	case KindSet:
		return "TSS"
	case KindDict:
		return "TSD"
	case KindWindow:
		return "TSW"
	case KindRef:
		return "REF"
	case KindSignal:
		return "SIGNAL"
	default:
		return "UNKNOWN"
	}
}

// Subscriber is anything that wants to be told when an Output transitions.
// An active Input subscribes its owner (the Subscriber handed to NewInput)
// to its bound output; parent containers learn of a child's tick through
// their own hook, not as subscribers.
type Subscriber interface {
	// Notify is called with the evaluation time at which the subscribed
	// Output ticked. It is called at most once per cycle per distinct
	// notification time.
	Notify(t engtime.Time)
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc func(t engtime.Time)

func (f SubscriberFunc) Notify(t engtime.Time) { f(t) }

// Output is the producer-side contract common to every time-series kind.
type Output interface {
	Kind() Kind
	// Valid reports whether the output currently holds a value at all
	// (last_modified_time != MIN for leaves; "at least one child valid" for
	// containers).
	Valid() bool
	// AllValid reports whether every declared child is valid; for leaves
	// this is identical to Valid.
	AllValid() bool
	// Modified reports whether the output ticked at exactly time t.
	Modified(t engtime.Time) bool
	// LastModifiedTime is the time of the most recent tick, or MinTime if
	// the output has never been modified.
	LastModifiedTime() engtime.Time

	// MarkModified stamps last_modified_time = t and notifies subscribers
	// and the parent (if nested).
	MarkModified(t engtime.Time)
	// MarkInvalid resets the output to "no value", notifying subscribers
	// exactly as a modification would.
	MarkInvalid(t engtime.Time)

	// Subscribe/Unsubscribe register or remove a Subscriber. For a
	// comparable Subscriber (a pointer, say) both are idempotent:
	// subscribing twice records the subscription once; unsubscribing an
	// absent subscriber is a no-op. A SubscriberFunc is not comparable, so
	// each Subscribe adds it again and Unsubscribe leaves it in place.
	Subscribe(s Subscriber)
	Unsubscribe(s Subscriber)

	// Parent returns the enclosing container output, or nil at the root.
	Parent() Output
	setParent(p Output)
}

// Ided is implemented by outputs that want a stable, human-readable label
// for diagnostics (dot rendering, NodeError wiring paths).
type Ided interface {
	Path() string
}
