package engine

import (
	"context"
	"log"
	"testing"

	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/clock"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/pushqueue"
	"github.com/reactiveflow/tsgraph/scheduler"
	"github.com/reactiveflow/tsgraph/ts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickBody struct{ out *ts.Scalar[float64] }

func (b *tickBody) Start(ctx builder.Context) error { return nil }
func (b *tickBody) Eval(ctx builder.Context) error  { return nil }
func (b *tickBody) Stop(ctx builder.Context)        {}
func (b *tickBody) PushApply(t engtime.Time, payload interface{}) error {
	v, _ := payload.(float64)
	b.out.ApplyResult(t, v)
	return nil
}

type doubleBody struct {
	in  *ts.Input
	out *ts.Scalar[float64]
}

func (b *doubleBody) Start(ctx builder.Context) error { b.in.MakeActive(); return nil }
func (b *doubleBody) Eval(ctx builder.Context) error {
	src, ok := b.in.Bound().(*ts.Scalar[float64])
	if !ok || !src.Valid() {
		return nil
	}
	b.out.ApplyResult(ctx.Clock().EvaluationTime(), src.Value()*2)
	return nil
}
func (b *doubleBody) Stop(ctx builder.Context) { b.in.MakePassive() }

type testCtx struct {
	n   *graph.Node
	g   *graph.Graph
}

func (c testCtx) Input(path string) *ts.Input             { return c.n.Input(path) }
func (c testCtx) Output() ts.Output                       { return c.n.Output() }
func (c testCtx) ErrorOutput() ts.Output                  { return c.n.ErrorOutput() }
func (c testCtx) RecordableState() ts.Output              { return c.n.RecordableState() }
func (c testCtx) Scalars() map[string]interface{}         { return c.n.Scalars() }
func (c testCtx) Scheduler() *scheduler.NodeScheduler       { return c.n.Scheduler() }
func (c testCtx) EvaluationMode() builder.EvaluationMode   { return builder.Simulation }
func (c testCtx) StartTime() engtime.Time                  { return c.g.Clock().StartTime() }
func (c testCtx) EndTime() engtime.Time                     { return engtime.MaxTime }
func (c testCtx) Clock() clock.EngineClock                  { return c.g.Clock() }
func (c testCtx) RequestEngineStop()                        {}

// TestEngineRunPropagatesPushedValueThroughReactiveChain drives a two-node
// graph (push source -> reactive doubler) through Start/Run to completion
// and checks the pushed value actually reaches the downstream node, the
// same end-to-end shape tsenginectl's demo exercises.
func TestEngineRunPropagatesPushedValueThroughReactiveChain(t *testing.T) {
	c := clock.NewSimulation(0)
	g := graph.New(graph.ID{}, c)

	tickOut := ts.NewScalar[float64]("tick")
	tickN := graph.NewNode(graph.NodeID{Index: 0}, builder.Signature{Kind: "push_source"}, nil, nil,
		tickOut, nil, nil, &tickBody{out: tickOut}, true, false, nil)
	g.AddNode(tickN)

	var doubleN *graph.Node
	doubleOut := ts.NewScalar[float64]("double")
	doubleIn := ts.NewInput("double.in", ts.SubscriberFunc(func(when engtime.Time) {
		g.ScheduleNode(doubleN.Index(), when, false)
	}))
	doubleIn.BindOutput(tickOut)
	doubleN = graph.NewNode(graph.NodeID{Index: 1}, builder.Signature{Kind: "double"}, nil,
		map[string]*ts.Input{"in": doubleIn}, doubleOut, nil, nil, &doubleBody{in: doubleIn, out: doubleOut}, false, false, nil)
	g.AddNode(doubleN)

	ctxFactory := func(n *graph.Node) builder.Context { return testCtx{n: n, g: g} }
	eng := New(g, Simulation, 100, ctxFactory, log.New(log.Writer(), "", 0), nil)

	require.NoError(t, eng.Start())
	g.ScheduleNode(tickN.Index(), 1, false)
	require.NoError(t, g.Receiver().Enqueue(pushqueue.Message{NodeIndex: tickN.Index(), Payload: 21.0}))

	require.NoError(t, eng.Run(context.Background()))

	assert.Equal(t, float64(21), tickOut.Value())
	assert.Equal(t, float64(42), doubleOut.Value())
}

// TestEngineRunStopsAtEndTime checks the cycle loop breaks once the next
// scheduled time exceeds end_time, without evaluating that node.
func TestEngineRunStopsAtEndTime(t *testing.T) {
	c := clock.NewSimulation(0)
	g := graph.New(graph.ID{}, c)
	out := ts.NewScalar[float64]("out")
	n := graph.NewNode(graph.NodeID{Index: 0}, builder.Signature{Kind: "noop"}, nil, nil, out, nil, nil, &tickBody{out: out}, false, false, nil)
	g.AddNode(n)

	ctxFactory := func(n *graph.Node) builder.Context { return testCtx{n: n, g: g} }
	eng := New(g, Simulation, 5, ctxFactory, log.New(log.Writer(), "", 0), nil)
	require.NoError(t, eng.Start())
	g.ScheduleNode(0, 10, false)

	require.NoError(t, eng.Run(context.Background()))
	assert.False(t, out.Valid())
}
