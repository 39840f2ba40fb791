// Package engine implements EvaluationEngine: the evaluation cycle that
// drives a graph's clock forward, services its push queue, invokes the
// scheduler, calls lifecycle observers, and handles node evaluation.
// Modeled on the teacher's ExecutingTask/TaskMaster wiring (task.go,
// task_master.go) generalized from a stream-processing task runner to the
// time-series graph's cycle contract.
package engine

import (
	"context"
	"log"

	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/clock"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/observer"
	"github.com/reactiveflow/tsgraph/pushqueue"
	"github.com/reactiveflow/tsgraph/tserrors"
	"go.uber.org/zap"
)

// Mode selects simulation (back-test, clock advances through queued
// events only) or real-time (clock tracks wall time).
type Mode int

const (
	Simulation Mode = iota
	RealTime
)

func (m Mode) builderMode() builder.EvaluationMode {
	if m == RealTime {
		return builder.RealTime
	}
	return builder.Simulation
}

// PushApplier is implemented by push-source node bodies: the engine hands
// each drained message to the corresponding node before the scheduled pass
// runs, per the graph evaluation cycle.
type PushApplier interface {
	PushApply(t engtime.Time, payload interface{}) error
}

// ContextFactory builds the builder.Context a given node's body sees
// during Start/Eval/Stop. The engine is agnostic to how inputs/outputs are
// threaded into that context; it only needs one per node per call.
type ContextFactory func(n *graph.Node) builder.Context

// Engine drives one graph (or nested graph) to completion or until halted.
type Engine struct {
	g          *graph.Graph
	clock      clock.EngineClock
	mode       Mode
	endTime    engtime.Time
	ctxFactory ContextFactory
	observers  observer.Multi
	logger     *log.Logger
	sink       *zap.Logger

	stopRequested bool
}

// New constructs an Engine for g. sink may be nil; when present it
// receives structured lifecycle events distinct from the per-node,
// wlog-gated hot-path diagnostics.
func New(g *graph.Graph, mode Mode, endTime engtime.Time, ctxFactory ContextFactory, logger *log.Logger, sink *zap.Logger) *Engine {
	return &Engine{
		g:          g,
		clock:      g.Clock(),
		mode:       mode,
		endTime:    endTime,
		ctxFactory: ctxFactory,
		logger:     logger,
		sink:       sink,
	}
}

// AddObserver registers a lifecycle observer. Observers are notified in
// registration order.
func (e *Engine) AddObserver(o observer.LifecycleObserver) {
	e.observers = append(e.observers, o)
}

// RequestStop sets a flag the engine checks at the next cycle boundary.
func (e *Engine) RequestStop() { e.stopRequested = true }

type graphView struct{ g *graph.Graph }

func (v graphView) ID() string    { return v.g.ID().String() }
func (v graphView) NodeCount() int { return v.g.NodeCount() }

type nodeView struct{ n *graph.Node }

func (v nodeView) ID() string    { return v.n.ID().String() }
func (v nodeView) Index() int    { return v.n.Index() }
func (v nodeView) Kind() string  { return v.n.Kind() }

// Start brings every node from constructed through started, in index
// order (push sources first, matching the scheduler's index layout).
func (e *Engine) Start() error {
	gv := graphView{e.g}
	for _, n := range e.g.Nodes() {
		if err := n.Initialise(); err != nil {
			return tserrors.NewWiringError(e.g.ID().String(), n.ID().String(), "", err)
		}
	}
	started := make([]*graph.Node, 0, len(e.g.Nodes()))
	for _, n := range e.g.Nodes() {
		ctx := e.ctxFactory(n)
		if err := n.Start(ctx); err != nil {
			// Roll back partial initialisation by disposing in reverse order.
			for i := len(started) - 1; i >= 0; i-- {
				started[i].Stop(e.ctxFactory(started[i]))
				started[i].Dispose()
			}
			return err
		}
		started = append(started, n)
		e.observers.OnNodeStart(gv, nodeView{n})
		e.logEvent("node started", n)
	}
	e.observers.OnGraphStart(gv)
	return nil
}

// Run executes the evaluation cycle from the clock's current time until
// end_time is exceeded, a stop is requested, or an unrecoverable error
// propagates out of a node's eval.
func (e *Engine) Run(ctx context.Context) error {
	gv := graphView{e.g}
	for {
		if e.stopRequested {
			break
		}
		select {
		case <-ctx.Done():
			e.stopRequested = true
		default:
		}
		if e.stopRequested {
			break
		}

		// Move the clock to the earliest pending time; work scheduled during
		// the previous cycle has already lowered it through ScheduleNode.
		e.clock.AdvanceToNextScheduledTime()
		t := e.clock.EvaluationTime()
		if t > e.endTime {
			break
		}

		e.observers.OnBeforeGraphEvaluation(gv, t)

		for _, msg := range e.g.Receiver().Drain() {
			if msg.NodeIndex < 0 || msg.NodeIndex >= e.g.PushSourceEnd() {
				continue
			}
			n := e.g.Nodes()[msg.NodeIndex]
			if pa, ok := n.Body().(PushApplier); ok {
				_ = pa.PushApply(t, msg.Payload)
			}
			e.g.ScheduleNode(msg.NodeIndex, t, true)
		}
		e.observers.OnAfterGraphPushNodesEvaluation(gv, t)

		for _, ndx := range e.g.ScheduledAt(t) {
			n := e.g.Nodes()[ndx]
			nv := nodeView{n}
			e.observers.OnBeforeNodeEvaluation(gv, nv, t)
			ctx := e.ctxFactory(n)
			if err := n.Eval(ctx, t); err != nil {
				e.observers.OnNodeError(gv, nv, t, err)
				e.logEvent("node eval error: "+err.Error(), n)
				return err
			}
			if when, ok := n.Scheduler().NextScheduledTime(); ok {
				e.g.ScheduleNode(ndx, when, false)
			}
			e.observers.OnAfterNodeEvaluation(gv, nv, t)
		}

		e.observers.OnAfterGraphEvaluation(gv, t)
	}
	return e.stop()
}

// stop calls every node's stop hook and disposes it, in reverse index
// order, matching the orderly-shutdown requirement for clock advancement
// past end_time or an explicit RequestStop.
func (e *Engine) stop() error {
	gv := graphView{e.g}
	nodes := e.g.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		ctx := e.ctxFactory(n)
		n.Stop(ctx)
		e.observers.OnNodeStop(gv, nodeView{n})
		n.Dispose()
	}
	e.observers.OnGraphStop(gv)
	e.logger.Printf("I! graph %s stopped", e.g.ID())
	return nil
}

func (e *Engine) logEvent(msg string, n *graph.Node) {
	if e.logger != nil {
		e.logger.Printf("I! [graph:%s][node:%s] %s", e.g.ID(), n.ID(), msg)
	}
	if e.sink != nil {
		e.sink.Info(msg, zap.String("graph", e.g.ID().String()), zap.String("node", n.ID().String()))
	}
}
