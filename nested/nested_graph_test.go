package nested

import (
	"testing"

	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/clock"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/ts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNestedGraphPeersInputsAndAliasesOutput checks the fixed single-child
// case: an outer bundle field is bound into the child's declared input,
// and the child's declared output is aliased onto the outer REF at Start.
func TestNestedGraphPeersInputsAndAliasesOutput(t *testing.T) {
	clk := clock.NewSimulation(0)
	outer := graph.New(graph.ID{}, clk)
	outer.AddNode(graph.NewNode(graph.NodeID{Index: 0}, builder.Signature{Kind: "nested_graph"}, nil, nil, nil, nil, nil, &nopBody{}, false, false, nil))

	src := ts.NewScalar[float64]("src")
	bundle := ts.NewBundle("args", []string{"x"})
	bundle.SetField("x", src)
	bundleIn := ts.NewInput("", ts.SubscriberFunc(func(engtime.Time) {}))
	bundleIn.BindOutput(bundle)

	out := ts.NewRef("out")
	instantiate := func(id graph.ID) (*graph.Graph, error) { return newDoublerGraph(id), nil }
	innerInputs := func(g *graph.Graph) map[string]*ts.Input { return map[string]*ts.Input{"in": g.Nodes()[0].Input("in")} }
	innerOutput := func(g *graph.Graph) ts.Output { return g.Nodes()[0].Output() }

	ngb := NewNestedGraph(instantiate, map[string]string{"in": "x"}, "out", innerInputs, innerOutput, childCtxFactory(clk))
	ctx := outerCtx{clk: clk, outer: outer, outerIndex: 0, inputs: map[string]*ts.Input{"": bundleIn}, output: out}

	clk.SetEvaluationTime(1)
	require.NoError(t, ngb.Start(ctx))
	require.True(t, out.Value().IsPeered())

	child := ngb.child
	childIn := child.Nodes()[0].Input("in")
	require.Same(t, src, childIn.Bound())
	assert.Equal(t, out.Value().Peer(), innerOutput(child))
}
