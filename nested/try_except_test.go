package nested

import (
	"testing"

	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/clock"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/ts"
	"github.com/reactiveflow/tsgraph/tserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTryExceptCapturesChildErrorInsteadOfPropagating exercises the
// try_except-around-a-raising-node scenario: the inner node's Eval always
// errors, and try_except must route that into the outer error output
// rather than returning it to the caller, stopping the child afterward.
func TestTryExceptCapturesChildErrorInsteadOfPropagating(t *testing.T) {
	clk := clock.NewSimulation(0)
	outer := graph.New(graph.ID{}, clk)
	outer.AddNode(graph.NewNode(graph.NodeID{Index: 0}, builder.Signature{Kind: "try_except"}, nil, nil, nil, nil, nil, &nopBody{}, false, false, nil))

	in := ts.NewScalar[float64]("in")
	boundIn := ts.NewInput("in", ts.SubscriberFunc(func(engtime.Time) {}))
	boundIn.BindOutput(in)

	errOut := ts.NewScalar[*tserrors.NodeError]("err")
	out := ts.NewRef("out")

	instantiate := func(id graph.ID) (*graph.Graph, error) { return newRaisingGraph(id), nil }
	innerInput := func(g *graph.Graph) *ts.Input { return g.Nodes()[0].Input("in") }
	innerOutput := func(g *graph.Graph) ts.Output { return g.Nodes()[0].Output() }

	tb := NewTryExcept(instantiate, innerInput, innerOutput, childCtxFactory(clk))
	ctx := outerCtx{
		clk: clk, outer: outer, outerIndex: 0,
		inputs: map[string]*ts.Input{"in": boundIn},
		output: out, errorOutput: errOut,
	}

	require.NoError(t, tb.Start(ctx))
	require.True(t, tb.running)

	clk.SetEvaluationTime(1)
	tb.child.ScheduleNode(0, 1, true)
	require.NoError(t, tb.Eval(ctx))

	assert.False(t, tb.running)
	require.True(t, errOut.Valid())
	assert.Equal(t, "try_except", errOut.Value().Signature)

	// A later tick restarts the child rather than leaving it dead forever.
	clk.SetEvaluationTime(2)
	require.NoError(t, tb.Eval(ctx))
	assert.True(t, tb.running)
}
