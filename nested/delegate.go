// Package nested implements the nested-graph node family: nested_graph,
// try_except, map, switch, reduce and mesh. All six own zero or more child
// graphs and evaluate their children to a fixed point whenever the outer
// engine visits the owning node. A child graph runs on whatever clock its
// instantiate callback built it with; DelegateClock is the clock that
// forwards a child's scheduling requests to the outer graph's scheduler,
// and the node bodies do not construct one themselves.
package nested

import (
	"time"

	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/clock"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
)

// DelegateClock is the nested engine clock described in the design notes:
// it stores only the outer clock and the nested node's (graph, index), and
// every scheduling request against it is forwarded to
// outerGraph.ScheduleNode(outerIndex, ...) so the outer engine is
// guaranteed to revisit the owning node at the requested time.
type DelegateClock struct {
	outer      clock.EngineClock
	outerGraph *graph.Graph
	outerIndex int
	nextTime   engtime.Time
}

func NewDelegateClock(outer clock.EngineClock, outerGraph *graph.Graph, outerIndex int) *DelegateClock {
	return &DelegateClock{outer: outer, outerGraph: outerGraph, outerIndex: outerIndex, nextTime: engtime.MaxTime}
}

func (d *DelegateClock) EvaluationTime() engtime.Time         { return d.outer.EvaluationTime() }
func (d *DelegateClock) Now() time.Time                       { return d.outer.Now() }
func (d *DelegateClock) NextCycleEvaluationTime() engtime.Time { return d.outer.NextCycleEvaluationTime() }
func (d *DelegateClock) NextScheduledEvaluationTime() engtime.Time { return d.nextTime }
func (d *DelegateClock) StartTime() engtime.Time              { return d.outer.StartTime() }
func (d *DelegateClock) MarkPushNodeRequiresScheduling()      { d.outer.MarkPushNodeRequiresScheduling() }

// UpdateNextScheduledEvaluationTime records the lower of the current and
// requested nested time, and always forwards to the outer graph so it
// schedules the owning node at t.
func (d *DelegateClock) UpdateNextScheduledEvaluationTime(t engtime.Time) {
	if t < d.nextTime {
		d.nextTime = t
	}
	d.outerGraph.ScheduleNode(d.outerIndex, t, false)
}

// AdvanceToNextScheduledTime is called once the nested node has driven its
// children to a fixed point at the current outer time; it simply resets
// the recorded next time, since the outer engine — not this delegate — is
// what actually advances evaluation time.
func (d *DelegateClock) AdvanceToNextScheduledTime() {
	d.nextTime = engtime.MaxTime
}

// SetEvaluationTime is a no-op: the nested graph's evaluation time is
// always the outer graph's, never set independently.
func (d *DelegateClock) SetEvaluationTime(engtime.Time) {}

// OuterAccess is implemented by the builder.Context a nested-graph node
// body receives, giving it the outer graph and its own index so it can
// build a DelegateClock and call ScheduleNode on its own behalf. Ordinary
// (non-nested) node bodies never need this; it is additive to
// builder.Context, not a replacement for it.
type OuterAccess interface {
	builder.Context
	OuterGraph() *graph.Graph
	OuterIndex() int
}

// EvalChildToFixedPoint evaluates every node due at t in g, and any node
// that becomes due at the same t as a side effect of evaluation, until no
// more nodes are due — "observing a fixed point" per the nested-graph
// node contract.
func EvalChildToFixedPoint(g *graph.Graph, ctxFactory func(*graph.Node) builder.Context, t engtime.Time) error {
	for {
		due := g.ScheduledAt(t)
		if len(due) == 0 {
			return nil
		}
		for _, ndx := range due {
			n := g.Nodes()[ndx]
			if err := n.Eval(ctxFactory(n), t); err != nil {
				return err
			}
			if when, ok := n.Scheduler().NextScheduledTime(); ok {
				g.ScheduleNode(ndx, when, false)
			}
		}
	}
}
