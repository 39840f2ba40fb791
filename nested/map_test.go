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

// TestMapAddedKeyTicksOnItsOwnDelayedSchedule exercises the map-over-TSD
// scenario end to end: a key added to the input dict must still produce an
// output once its child's own delayed first schedule comes due, even
// though the outer dict itself is not modified at that later time.
func TestMapAddedKeyTicksOnItsOwnDelayedSchedule(t *testing.T) {
	clk := clock.NewSimulation(0)
	outer := graph.New(graph.ID{}, clk)
	outer.AddNode(graph.NewNode(graph.NodeID{Index: 0}, builder.Signature{Kind: "map"}, nil, nil, nil, nil, nil, &nopBody{}, false, false, nil))

	d := ts.NewDict("keys", func(key string) ts.Output { return ts.NewScalar[float64](key) })
	keysIn := ts.NewInput("keys", ts.SubscriberFunc(func(engtime.Time) {}))
	keysIn.BindOutput(d)
	outDict := ts.NewDict("out", func(key string) ts.Output { return ts.NewRef(key) })

	instantiate := func(id graph.ID, key string) (*graph.Graph, error) {
		return newDoublerGraph(id), nil
	}
	mux := func(g *graph.Graph) *ts.Input { return g.Nodes()[0].Input("in") }
	innerOut := func(g *graph.Graph) ts.Output { return g.Nodes()[0].Output() }

	mb := NewMap(instantiate, mux, innerOut, childCtxFactory(clk), "keys")
	ctx := outerCtx{clk: clk, outer: outer, outerIndex: 0, inputs: map[string]*ts.Input{"keys": keysIn}, output: outDict}

	clk.SetEvaluationTime(1)
	d.Put(1, "a")
	valOut, _ := d.Get("a")
	valOut.(*ts.Scalar[float64]).ApplyResult(1, 3)
	require.NoError(t, mb.Eval(ctx))

	// The child graph's node 0 is due at t=2 (1 + MinTD); the outer dict
	// itself has no delta at t=2 at all, which is exactly the case the
	// ModifiedKeys gate used to drop.
	clk.SetEvaluationTime(2)
	require.NoError(t, mb.Eval(ctx))

	outChild, ok := outDict.Get("a")
	require.True(t, ok)
	ref, ok := outChild.(*ts.Ref)
	require.True(t, ok)
	require.True(t, ref.Value().IsPeered())
	peer, ok := ref.Value().Peer().(*ts.Scalar[float64])
	require.True(t, ok)
	assert.Equal(t, float64(6), peer.Value())
}

// TestMapRemovedKeyDisposesChild ensures key removal still stops and
// disposes the child graph and retracts it from the output dict.
func TestMapRemovedKeyDisposesChild(t *testing.T) {
	clk := clock.NewSimulation(0)
	outer := graph.New(graph.ID{}, clk)
	outer.AddNode(graph.NewNode(graph.NodeID{Index: 0}, builder.Signature{Kind: "map"}, nil, nil, nil, nil, nil, &nopBody{}, false, false, nil))

	d := ts.NewDict("keys", func(key string) ts.Output { return ts.NewScalar[float64](key) })
	keysIn := ts.NewInput("keys", ts.SubscriberFunc(func(engtime.Time) {}))
	keysIn.BindOutput(d)
	outDict := ts.NewDict("out", func(key string) ts.Output { return ts.NewRef(key) })

	instantiate := func(id graph.ID, key string) (*graph.Graph, error) {
		return newDoublerGraph(id), nil
	}
	mux := func(g *graph.Graph) *ts.Input { return g.Nodes()[0].Input("in") }
	innerOut := func(g *graph.Graph) ts.Output { return g.Nodes()[0].Output() }

	mb := NewMap(instantiate, mux, innerOut, childCtxFactory(clk), "keys")
	ctx := outerCtx{clk: clk, outer: outer, outerIndex: 0, inputs: map[string]*ts.Input{"keys": keysIn}, output: outDict}

	clk.SetEvaluationTime(1)
	d.Put(1, "a")
	require.NoError(t, mb.Eval(ctx))
	require.Contains(t, mb.children, "a")

	clk.SetEvaluationTime(2)
	d.Remove(2, "a")
	require.NoError(t, mb.Eval(ctx))
	assert.NotContains(t, mb.children, "a")
	_, stillPresent := outDict.Get("a")
	assert.False(t, stillPresent)
}
