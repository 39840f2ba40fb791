package ts

import (
	"reflect"

	"github.com/reactiveflow/tsgraph/engtime"
)

// Base implements the subscriber bookkeeping and last-modified tracking
// shared by every output kind. It is embedded, never used standalone.
//
// Subscribers are kept in an insertion-ordered slice plus a membership set
// so that Subscribe/Unsubscribe stay idempotent (per the binding invariant)
// without making Notify allocate. A subscriber of a non-comparable type (a
// SubscriberFunc) cannot go in the set: it is appended on every Subscribe
// and Unsubscribe leaves it in place.
type Base struct {
	lastModified engtime.Time
	subs         []Subscriber
	subSet       map[Subscriber]struct{}
	parent       Output
	path         string
}

func NewBase(path string) Base {
	return Base{lastModified: engtime.MinTime, path: path}
}

func (b *Base) Path() string { return b.path }

func (b *Base) LastModifiedTime() engtime.Time { return b.lastModified }

func (b *Base) Modified(t engtime.Time) bool { return b.lastModified == t }

// ValidLeaf implements Valid for non-container kinds: a leaf is valid iff
// it has ever been modified and not subsequently invalidated.
func (b *Base) ValidLeaf() bool { return b.lastModified != engtime.MinTime }

func (b *Base) Parent() Output    { return b.parent }
func (b *Base) setParent(p Output) { b.parent = p }

func (b *Base) Subscribe(s Subscriber) {
	if !reflect.TypeOf(s).Comparable() {
		b.subs = append(b.subs, s)
		return
	}
	if b.subSet == nil {
		b.subSet = make(map[Subscriber]struct{})
	}
	if _, ok := b.subSet[s]; ok {
		return
	}
	b.subSet[s] = struct{}{}
	b.subs = append(b.subs, s)
}

func (b *Base) Unsubscribe(s Subscriber) {
	if b.subSet == nil || !reflect.TypeOf(s).Comparable() {
		return
	}
	if _, ok := b.subSet[s]; !ok {
		return
	}
	delete(b.subSet, s)
	for i, sub := range b.subs {
		if sub == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
}

// stamp records t as the last-modified time and fans the tick out to every
// subscriber, then to the parent container (which decides whether and how
// to aggregate further). A second stamp at the same t (e.g. two children of
// a bundle ticking in the same cycle) is a no-op past the first: each
// subscriber is notified at most once per cycle per distinct time.
func (b *Base) stamp(t engtime.Time) {
	if b.lastModified == t {
		return
	}
	b.lastModified = t
	for _, s := range b.subs {
		s.Notify(t)
	}
	if b.parent != nil {
		if n, ok := b.parent.(interface{ onChildModified(engtime.Time) }); ok {
			n.onChildModified(t)
		}
	}
}

func (b *Base) invalidate(t engtime.Time) {
	b.lastModified = engtime.MinTime
	for _, s := range b.subs {
		s.Notify(t)
	}
	if b.parent != nil {
		if n, ok := b.parent.(interface{ onChildModified(engtime.Time) }); ok {
			n.onChildModified(t)
		}
	}
}
