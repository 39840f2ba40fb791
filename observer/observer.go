// Package observer defines the lifecycle-observer contract: callbacks the
// engine invokes around graph and node evaluation and state transitions.
// Observers must not mutate engine state, per the observer interface.
package observer

import "github.com/reactiveflow/tsgraph/engtime"

// GraphView and NodeView are the read-only projections passed to
// observers, deliberately narrower than the graph/node implementation so
// an observer cannot reach in and mutate state it was only meant to watch.
type GraphView interface {
	ID() string
	NodeCount() int
}

type NodeView interface {
	ID() string
	Index() int
	Kind() string
}

// LifecycleObserver receives callbacks on every graph/node transition and
// before/after evaluation at both graph and node granularity.
type LifecycleObserver interface {
	OnGraphStart(g GraphView)
	OnGraphStop(g GraphView)

	OnNodeStart(g GraphView, n NodeView)
	OnNodeStop(g GraphView, n NodeView)

	OnBeforeGraphEvaluation(g GraphView, t engtime.Time)
	OnAfterGraphPushNodesEvaluation(g GraphView, t engtime.Time)
	OnAfterGraphEvaluation(g GraphView, t engtime.Time)

	OnBeforeNodeEvaluation(g GraphView, n NodeView, t engtime.Time)
	OnAfterNodeEvaluation(g GraphView, n NodeView, t engtime.Time)

	// OnNodeError is called when a node's evaluation returns an error to
	// the engine, just before Run returns that error. An error the node
	// captures into its error output is not returned and produces no call.
	OnNodeError(g GraphView, n NodeView, t engtime.Time, err error)
}

// NopObserver implements LifecycleObserver with no-op methods, so callers
// that only care about a couple of hooks can embed it and override the
// rest.
type NopObserver struct{}

func (NopObserver) OnGraphStart(GraphView) {}
func (NopObserver) OnGraphStop(GraphView)  {}

func (NopObserver) OnNodeStart(GraphView, NodeView) {}
func (NopObserver) OnNodeStop(GraphView, NodeView)  {}

func (NopObserver) OnBeforeGraphEvaluation(GraphView, engtime.Time)          {}
func (NopObserver) OnAfterGraphPushNodesEvaluation(GraphView, engtime.Time) {}
func (NopObserver) OnAfterGraphEvaluation(GraphView, engtime.Time)          {}

func (NopObserver) OnBeforeNodeEvaluation(GraphView, NodeView, engtime.Time) {}
func (NopObserver) OnAfterNodeEvaluation(GraphView, NodeView, engtime.Time)  {}

func (NopObserver) OnNodeError(GraphView, NodeView, engtime.Time, error) {}

// Multi fans callbacks out to a list of observers, in registration order,
// matching "a list of lifecycle observers" on EvaluationEngine.
type Multi []LifecycleObserver

func (m Multi) OnGraphStart(g GraphView) {
	for _, o := range m {
		o.OnGraphStart(g)
	}
}
func (m Multi) OnGraphStop(g GraphView) {
	for _, o := range m {
		o.OnGraphStop(g)
	}
}
func (m Multi) OnNodeStart(g GraphView, n NodeView) {
	for _, o := range m {
		o.OnNodeStart(g, n)
	}
}
func (m Multi) OnNodeStop(g GraphView, n NodeView) {
	for _, o := range m {
		o.OnNodeStop(g, n)
	}
}
func (m Multi) OnBeforeGraphEvaluation(g GraphView, t engtime.Time) {
	for _, o := range m {
		o.OnBeforeGraphEvaluation(g, t)
	}
}
func (m Multi) OnAfterGraphPushNodesEvaluation(g GraphView, t engtime.Time) {
	for _, o := range m {
		o.OnAfterGraphPushNodesEvaluation(g, t)
	}
}
func (m Multi) OnAfterGraphEvaluation(g GraphView, t engtime.Time) {
	for _, o := range m {
		o.OnAfterGraphEvaluation(g, t)
	}
}
func (m Multi) OnBeforeNodeEvaluation(g GraphView, n NodeView, t engtime.Time) {
	for _, o := range m {
		o.OnBeforeNodeEvaluation(g, n, t)
	}
}
func (m Multi) OnAfterNodeEvaluation(g GraphView, n NodeView, t engtime.Time) {
	for _, o := range m {
		o.OnAfterNodeEvaluation(g, n, t)
	}
}
func (m Multi) OnNodeError(g GraphView, n NodeView, t engtime.Time, err error) {
	for _, o := range m {
		o.OnNodeError(g, n, t, err)
	}
}
