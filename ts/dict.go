package ts

import "github.com/reactiveflow/tsgraph/engtime"

// DictFactory creates the output for a newly-observed dict key. Dict calls
// it at most once per key, the first time the key is referenced either by
// an explicit Put or by GetRef.
type DictFactory func(key string) Output

// Dict is the TSD[K,V] output: a keyed container whose key set grows and
// shrinks over the graph's life. Per-cycle key deltas are tracked the same
// way Set tracks member deltas, and children are reference counted so that
// a key can be released (e.g. by a map node dropping an instance) only
// once nothing still holds a REF into it.
type Dict struct {
	Base
	factory     DictFactory
	children    map[string]Output
	refcount    map[string]int
	addedKeys   map[string]struct{}
	removedKeys map[string]struct{}
	cycle       engtime.Time
}

func NewDict(path string, factory DictFactory) *Dict {
	return &Dict{
		Base:     NewBase(path),
		factory:  factory,
		children: make(map[string]Output),
		refcount: make(map[string]int),
	}
}

func (d *Dict) Kind() Kind { return KindDict }

func (d *Dict) Valid() bool {
	for _, c := range d.children {
		if c.Valid() {
			return true
		}
	}
	return false
}

func (d *Dict) AllValid() bool {
	for _, c := range d.children {
		if !c.Valid() {
			return false
		}
	}
	return true
}

func (d *Dict) resetCycle(t engtime.Time) {
	if d.cycle == t {
		return
	}
	d.cycle = t
	d.addedKeys = make(map[string]struct{})
	d.removedKeys = make(map[string]struct{})
}

// Keys returns the current key set.
func (d *Dict) Keys() []string {
	ks := make([]string, 0, len(d.children))
	for k := range d.children {
		ks = append(ks, k)
	}
	return ks
}

func (d *Dict) Get(key string) (Output, bool) {
	c, ok := d.children[key]
	return c, ok
}

// AddedKeys returns the keys that entered the dict during the cycle at t.
func (d *Dict) AddedKeys(t engtime.Time) map[string]struct{} {
	d.resetCycle(t)
	return d.addedKeys
}

// RemovedKeys returns the keys that left the dict during the cycle at t.
func (d *Dict) RemovedKeys(t engtime.Time) map[string]struct{} {
	d.resetCycle(t)
	return d.removedKeys
}

// ModifiedKeys returns the keys whose child output ticked during the cycle
// at t; this is the delta a subscriber to the whole dict would see.
func (d *Dict) ModifiedKeys(t engtime.Time) map[string]struct{} {
	mod := make(map[string]struct{})
	for k, c := range d.children {
		if c.Modified(t) {
			mod[k] = struct{}{}
		}
	}
	return mod
}

// ensure creates the child for key if it does not already exist, wiring
// its parent pointer, but does not touch the added/removed delta — callers
// that logically introduce the key call Put or bump the delta themselves.
func (d *Dict) ensure(key string) Output {
	if c, ok := d.children[key]; ok {
		return c
	}
	c := d.factory(key)
	c.setParent(d)
	d.children[key] = c
	return c
}

// Put introduces key into the dict if absent, recording it in the added
// delta for the cycle at t, coalescing against a same-cycle removal.
func (d *Dict) Put(t engtime.Time, key string) Output {
	d.resetCycle(t)
	_, existed := d.children[key]
	c := d.ensure(key)
	if !existed {
		if _, wasRemoved := d.removedKeys[key]; wasRemoved {
			delete(d.removedKeys, key)
		} else {
			d.addedKeys[key] = struct{}{}
		}
		d.stamp(t)
	}
	return c
}

// GetRef returns the child for key, creating it via Put if necessary, and
// increments its reference count. Pairs with ReleaseRef.
func (d *Dict) GetRef(t engtime.Time, key string) Output {
	c := d.Put(t, key)
	d.refcount[key]++
	return c
}

// ReleaseRef decrements the reference count for key. It never evicts the
// child itself: once the count is zero, the next Remove of key deletes it.
func (d *Dict) ReleaseRef(key string) {
	if d.refcount[key] <= 0 {
		return
	}
	d.refcount[key]--
}

// Remove evicts key from the dict, recording it in the removed delta,
// coalescing against a same-cycle Put. A key still held by an outstanding
// GetRef keeps its child output, which stays reachable through Get and
// Keys; only a Remove made while the count is zero deletes the child.
func (d *Dict) Remove(t engtime.Time, key string) {
	d.resetCycle(t)
	if _, ok := d.children[key]; !ok {
		return
	}
	if _, wasAdded := d.addedKeys[key]; wasAdded {
		delete(d.addedKeys, key)
	} else {
		d.removedKeys[key] = struct{}{}
	}
	if d.refcount[key] <= 0 {
		delete(d.children, key)
	}
	d.stamp(t)
}

func (d *Dict) onChildModified(t engtime.Time) { d.stamp(t) }

func (d *Dict) MarkModified(t engtime.Time) { d.resetCycle(t); d.stamp(t) }

func (d *Dict) MarkInvalid(t engtime.Time) {
	d.resetCycle(t)
	for k, c := range d.children {
		c.MarkInvalid(t)
		d.removedKeys[k] = struct{}{}
	}
	d.children = make(map[string]Output)
	d.refcount = make(map[string]int)
	d.invalidate(t)
}
