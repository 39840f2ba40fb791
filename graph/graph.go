// Package graph implements the Node lifecycle object and the Graph
// container: a totally ordered node list, its parallel schedule vector,
// and the push-source receiver queue, modeled on the teacher's node/task
// bookkeeping (node.go, task.go) generalized from a stream-processing DAG
// to the time-series graph's evaluation contract.
package graph

import (
	"fmt"
	"io"
	"sort"

	"github.com/reactiveflow/tsgraph/clock"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/pushqueue"
)

// Graph is a totally ordered list of nodes, a schedule vector mapping node
// index to its earliest pending evaluation time, and the receiver for
// cross-thread push events. Push-source nodes occupy indices
// [0, pushSourceEnd) per the scheduler's layout contract.
type Graph struct {
	id            ID
	nodes         []*Node
	schedule      []engtime.Time
	receiver      *pushqueue.Queue
	clock         clock.EngineClock
	traits        map[string]interface{}
	parent        *Node // non-nil when this graph is nested inside parent's owning graph
	pushSourceEnd int
}

// New constructs an empty graph with the given ID and clock. Nodes are
// attached with AddNode in builder.Pipeline.Sort order, push sources
// first.
func New(id ID, c clock.EngineClock) *Graph {
	g := &Graph{id: id, clock: c, traits: make(map[string]interface{})}
	g.receiver = pushqueue.New(func() { c.MarkPushNodeRequiresScheduling() })
	return g
}

func (g *Graph) ID() ID                       { return g.id }
func (g *Graph) Clock() clock.EngineClock     { return g.clock }
func (g *Graph) Receiver() *pushqueue.Queue   { return g.receiver }
func (g *Graph) Nodes() []*Node               { return g.nodes }
func (g *Graph) NodeCount() int               { return len(g.nodes) }
func (g *Graph) SetParent(n *Node)            { g.parent = n }
func (g *Graph) Parent() *Node                { return g.parent }
func (g *Graph) Trait(key string) interface{} { return g.traits[key] }
func (g *Graph) SetTrait(key string, v interface{}) { g.traits[key] = v }

func (g *Graph) String() string { return g.id.String() }

// AddNode appends n to the graph. Push-source nodes must be added before
// any non-push-source node, matching the scheduler's index layout
// contract; AddNode panics on a caller that violates this since it is a
// build-time programming error, not a runtime condition.
func (g *Graph) AddNode(n *Node) {
	if n.IsPushSource() {
		if len(g.nodes) != g.pushSourceEnd {
			panic("graph: push-source nodes must be added before scheduled nodes")
		}
		g.pushSourceEnd++
	}
	g.nodes = append(g.nodes, n)
	g.schedule = append(g.schedule, engtime.MaxTime)
}

func (g *Graph) PushSourceEnd() int { return g.pushSourceEnd }

// ScheduleNode sets schedule[ndx] = min(schedule[ndx], when) unless
// forceSet, clamping when to the floor of evaluation_time + MIN_TD (the
// ScheduleError policy in the error taxonomy: scheduling in the past is
// rejected by clamping, not by erroring). If the result lowers the
// graph's next scheduled time, the clock is informed.
func (g *Graph) ScheduleNode(ndx int, when engtime.Time, forceSet bool) {
	floor := g.clock.EvaluationTime().Add(engtime.MinTD)
	if when < floor {
		when = floor
	}
	if forceSet || when < g.schedule[ndx] {
		g.schedule[ndx] = when
	}
	if g.schedule[ndx] < g.clock.NextScheduledEvaluationTime() {
		g.clock.UpdateNextScheduledEvaluationTime(g.schedule[ndx])
	}
}

// UnscheduleNode clears any pending schedule entry for ndx.
func (g *Graph) UnscheduleNode(ndx int) {
	g.schedule[ndx] = engtime.MaxTime
}

// ScheduledAt returns the node indices whose schedule entry equals t, in
// ascending index order — the tie-break the graph evaluation cycle
// requires. Each returned entry's schedule slot is reset to MaxTime,
// matching "schedule[ndx] = MAX" at the top of the per-node cycle body.
func (g *Graph) ScheduledAt(t engtime.Time) []int {
	var due []int
	for ndx, when := range g.schedule {
		if when == t {
			due = append(due, ndx)
		}
	}
	sort.Ints(due)
	for _, ndx := range due {
		g.schedule[ndx] = engtime.MaxTime
	}
	return due
}

// NextScheduledTime returns the minimum pending schedule entry across all
// nodes, or MaxTime if nothing is scheduled.
func (g *Graph) NextScheduledTime() engtime.Time {
	min := engtime.MaxTime
	for _, when := range g.schedule {
		if when < min {
			min = when
		}
	}
	return min
}

// Dot renders the graph as a graphviz .dot document, reusing the teacher's
// label/stat-annotation approach (pipeline.go's Dot, node.go's edot) with
// each node's eval_count stat standing in for kapacitor's collected/emitted
// point counts.
func (g *Graph) Dot(w io.Writer, labels bool) error {
	if _, err := fmt.Fprintf(w, "digraph %s {\n", dotSafeName(g.id.String())); err != nil {
		return err
	}
	for _, n := range g.nodes {
		label := n.Kind()
		if labels {
			evalCount := "0"
			if v := n.Stats().Get("eval_count"); v != nil {
				evalCount = v.String()
			}
			label = fmt.Sprintf("%s\\n%s\\nevals=%s", n.Kind(), n.ID(), evalCount)
		}
		if _, err := fmt.Fprintf(w, "    n%d [label=\"%s\"];\n", n.Index(), label); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "}\n"); err != nil {
		return err
	}
	return nil
}

func dotSafeName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "g"
	}
	return string(out)
}
