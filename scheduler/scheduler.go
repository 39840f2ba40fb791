// Package scheduler implements the per-node tag scheduler described in the
// component design: a node may schedule itself at one or more future
// times, each keyed by an optional tag, and ask at evaluation time which
// tags "fired" (time equals the current evaluation time).
package scheduler

import "github.com/reactiveflow/tsgraph/engtime"

// untagged is the key used for schedule calls that pass no tag, so they
// still participate in pop/has/un_schedule uniformly.
const untagged = ""

// NodeScheduler holds the pending (time, tag) pairs attached to one node,
// one time per tag, kept in no particular order. schedule(t, tag) overwrites the prior entry for that tag, matching
// "NodeScheduler.schedule(t, tag) followed by schedule(t', tag) replaces
// the prior time" in the testable properties.
type NodeScheduler struct {
	entries map[string]engtime.Time
}

func New() *NodeScheduler {
	return &NodeScheduler{entries: make(map[string]engtime.Time)}
}

// Schedule records when as the pending time for tag (or the untagged slot
// if tag is empty), replacing any prior entry for that tag.
func (s *NodeScheduler) Schedule(when engtime.Time, tag string) {
	if tag == "" {
		tag = untagged
	}
	s.entries[tag] = when
}

// ScheduleOnce is Schedule for the untagged slot, the common case of a
// node wanting exactly one pending wakeup.
func (s *NodeScheduler) ScheduleOnce(when engtime.Time) {
	s.Schedule(when, untagged)
}

// HasTag reports whether tag currently has a pending entry.
func (s *NodeScheduler) HasTag(tag string) bool {
	if tag == "" {
		tag = untagged
	}
	_, ok := s.entries[tag]
	return ok
}

// PopTag removes and returns tag's pending time, if it has one, whether or
// not that time has been reached. Intended to
// be called by the node body during eval for tags it observed fired at the
// current evaluation time.
func (s *NodeScheduler) PopTag(tag string) (engtime.Time, bool) {
	if tag == "" {
		tag = untagged
	}
	t, ok := s.entries[tag]
	if ok {
		delete(s.entries, tag)
	}
	return t, ok
}

// UnSchedule removes tag's pending entry (or, if tag is empty, every
// pending entry).
func (s *NodeScheduler) UnSchedule(tag string) {
	if tag == "" {
		s.entries = make(map[string]engtime.Time)
		return
	}
	delete(s.entries, tag)
}

// FiredTags returns every tag whose pending time equals t, the set a node
// body consults during eval to decide what fired this cycle.
func (s *NodeScheduler) FiredTags(t engtime.Time) []string {
	var fired []string
	for tag, when := range s.entries {
		if when == t {
			fired = append(fired, tag)
		}
	}
	return fired
}

// IsScheduled reports whether any entry is pending at all.
func (s *NodeScheduler) IsScheduled() bool { return len(s.entries) > 0 }

// NextScheduledTime returns the minimum pending time across all tags, and
// whether any entry exists. This is what the owning node feeds back to the
// graph scheduler after evaluation.
func (s *NodeScheduler) NextScheduledTime() (engtime.Time, bool) {
	min := engtime.MaxTime
	found := false
	for _, when := range s.entries {
		if !found || when < min {
			min = when
			found = true
		}
	}
	return min, found
}
