package nested

import (
	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/clock"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/scheduler"
	"github.com/reactiveflow/tsgraph/ts"
)

// nodeCtx is the builder.Context a plain child-graph node body sees in
// these tests: it reads its bound inputs/output straight off the Node,
// the same pattern cmd/tsenginectl's demoContext and graph_test.go's
// fakeContext use.
type nodeCtx struct {
	n   *graph.Node
	clk clock.EngineClock
}

func (c nodeCtx) Input(path string) *ts.Input             { return c.n.Input(path) }
func (c nodeCtx) Output() ts.Output                       { return c.n.Output() }
func (c nodeCtx) ErrorOutput() ts.Output                  { return c.n.ErrorOutput() }
func (c nodeCtx) RecordableState() ts.Output              { return c.n.RecordableState() }
func (c nodeCtx) Scalars() map[string]interface{}         { return c.n.Scalars() }
func (c nodeCtx) Scheduler() *scheduler.NodeScheduler      { return c.n.Scheduler() }
func (c nodeCtx) EvaluationMode() builder.EvaluationMode  { return builder.Simulation }
func (c nodeCtx) StartTime() engtime.Time                 { return c.clk.StartTime() }
func (c nodeCtx) EndTime() engtime.Time                   { return engtime.MaxTime }
func (c nodeCtx) Clock() clock.EngineClock                { return c.clk }
func (c nodeCtx) RequestEngineStop()                      {}

// childCtxFactory returns the per-node builder.Context factory a nested
// node body threads down into EvalChildToFixedPoint: every child node
// reads the same outer clk, matching how a real DelegateClock forwards
// EvaluationTime() straight from the outer clock.
func childCtxFactory(clk clock.EngineClock) func(n *graph.Node) builder.Context {
	return func(n *graph.Node) builder.Context { return nodeCtx{n: n, clk: clk} }
}

// outerCtx is the builder.Context + OuterAccess a nested node body itself
// receives: its declared inputs are keyed by name, its output/error output
// are fixed for the lifetime of the test.
type outerCtx struct {
	clk         clock.EngineClock
	outer       *graph.Graph
	outerIndex  int
	inputs      map[string]*ts.Input
	output      ts.Output
	errorOutput ts.Output
}

func (c outerCtx) Input(path string) *ts.Input             { return c.inputs[path] }
func (c outerCtx) Output() ts.Output                       { return c.output }
func (c outerCtx) ErrorOutput() ts.Output                  { return c.errorOutput }
func (c outerCtx) RecordableState() ts.Output              { return nil }
func (c outerCtx) Scalars() map[string]interface{}         { return nil }
func (c outerCtx) Scheduler() *scheduler.NodeScheduler      { return nil }
func (c outerCtx) EvaluationMode() builder.EvaluationMode  { return builder.Simulation }
func (c outerCtx) StartTime() engtime.Time                 { return c.clk.StartTime() }
func (c outerCtx) EndTime() engtime.Time                   { return engtime.MaxTime }
func (c outerCtx) Clock() clock.EngineClock                { return c.clk }
func (c outerCtx) RequestEngineStop()                      {}
func (c outerCtx) OuterGraph() *graph.Graph                { return c.outer }
func (c outerCtx) OuterIndex() int                         { return c.outerIndex }

// doublerBody doubles its scalar "in" input onto its output each eval, the
// simplest observable child-graph body for exercising map/mesh/reduce.
type doublerBody struct {
	in  *ts.Input
	out *ts.Scalar[float64]
}

func (b *doublerBody) Start(ctx builder.Context) error { b.in.MakeActive(); return nil }
func (b *doublerBody) Eval(ctx builder.Context) error {
	src, ok := b.in.Bound().(*ts.Scalar[float64])
	if !ok || !src.Valid() {
		return nil
	}
	b.out.ApplyResult(ctx.Clock().EvaluationTime(), src.Value()*2)
	return nil
}
func (b *doublerBody) Stop(ctx builder.Context) { b.in.MakePassive() }

// newDoublerGraph builds a one-node child graph computing 2*in, suitable
// for the InstantiateKeyed/Instantiate/OperatorBuilder/CaseBuilder
// callbacks under test.
func newDoublerGraph(id graph.ID) *graph.Graph {
	g := graph.New(id, clock.NewSimulation(0))
	in := ts.NewInput("in", ts.SubscriberFunc(func(engtime.Time) {}))
	out := ts.NewScalar[float64]("out")
	body := &doublerBody{in: in, out: out}
	n := graph.NewNode(graph.NodeID{Graph: id, Index: 0}, builder.Signature{Kind: "doubler"}, nil,
		map[string]*ts.Input{"in": in}, out, nil, nil, body, false, false, nil)
	g.AddNode(n)
	return g
}

// raisingBody always fails its Eval, for try_except's error-capture path.
type raisingBody struct{}

func (raisingBody) Start(ctx builder.Context) error { return nil }
func (raisingBody) Eval(ctx builder.Context) error  { return errRaising }
func (raisingBody) Stop(ctx builder.Context)        {}

type raisingErr struct{}

func (raisingErr) Error() string { return "child node raised" }

var errRaising error = raisingErr{}

func newRaisingGraph(id graph.ID) *graph.Graph {
	g := graph.New(id, clock.NewSimulation(0))
	in := ts.NewInput("in", ts.SubscriberFunc(func(engtime.Time) {}))
	out := ts.NewScalar[float64]("out")
	n := graph.NewNode(graph.NodeID{Graph: id, Index: 0}, builder.Signature{Kind: "raiser"}, nil,
		map[string]*ts.Input{"in": in}, out, nil, nil, raisingBody{}, false, false, nil)
	g.AddNode(n)
	return g
}
