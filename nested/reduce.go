package nested

import (
	"sort"

	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/ts"
)

// reduceLeaf is a TSD entry mapped onto a tree leaf. Leaves are kept
// sorted by key, so an add or remove shifts every leaf after it.
type reduceLeaf struct {
	key string
	out ts.Output
}

// OperatorBuilder instantiates one binary operator graph combining two
// operands (named "lhs", "rhs" in its declared inputs) into one output.
type OperatorBuilder func(id graph.ID) (*graph.Graph, error)

// ReduceBody is the `reduce` node: a binary tree of inner operator graphs
// over a TSD input treated as a logical list, pairing adjacent entries
// level by level; an unpaired last entry at a level is carried up
// unchanged. zero, when non-nil, is the result for an empty list.
type ReduceBody struct {
	buildOperator OperatorBuilder
	lhsInput      func(g *graph.Graph) *ts.Input
	rhsInput      func(g *graph.Graph) *ts.Input
	innerOutput   func(g *graph.Graph) ts.Output
	ctxFactory    func(n *graph.Node) builder.Context
	listInputName string
	zero          ts.Output

	leaves     []reduceLeaf
	levels     [][]*graph.Graph // one single-graph entry per operator graph, leaf level first
	levelOut   [][]ts.Output
}

func NewReduce(
	buildOperator OperatorBuilder,
	lhsInput, rhsInput func(g *graph.Graph) *ts.Input,
	innerOutput func(g *graph.Graph) ts.Output,
	ctxFactory func(n *graph.Node) builder.Context,
	listInputName string,
	zero ts.Output,
) *ReduceBody {
	return &ReduceBody{
		buildOperator: buildOperator,
		lhsInput:      lhsInput,
		rhsInput:      rhsInput,
		innerOutput:   innerOutput,
		ctxFactory:    ctxFactory,
		listInputName: listInputName,
		zero:          zero,
	}
}

func (b *ReduceBody) Start(ctx builder.Context) error { return nil }

func (b *ReduceBody) syncLeaves(d *ts.Dict, t engtime.Time) bool {
	changed := false
	for key := range d.AddedKeys(t) {
		out, _ := d.Get(key)
		b.leaves = append(b.leaves, reduceLeaf{key: key, out: out})
		changed = true
	}
	if len(d.RemovedKeys(t)) > 0 {
		removed := d.RemovedKeys(t)
		kept := b.leaves[:0]
		for _, l := range b.leaves {
			if _, gone := removed[l.key]; !gone {
				kept = append(kept, l)
			}
		}
		b.leaves = kept
		changed = true
	}
	sort.SliceStable(b.leaves, func(i, j int) bool { return b.leaves[i].key < b.leaves[j].key })
	return changed
}

// rebuildTree discards and reinstantiates every operator graph. Reduce
// trees in this implementation are cheap to rebuild wholesale on any
// membership change since operator graphs are expected to be small
// (arithmetic combinators); see DESIGN.md for the tradeoff against
// incremental leaf rebinding.
func (b *ReduceBody) rebuildTree(oa OuterAccess, t engtime.Time) error {
	b.disposeTree()
	cur := make([]ts.Output, len(b.leaves))
	for i, l := range b.leaves {
		cur[i] = l.out
	}
	level := 0
	for len(cur) > 1 {
		var next []ts.Output
		for i := 0; i < len(cur); i += 2 {
			if i+1 >= len(cur) {
				next = append(next, cur[i])
				continue
			}
			childID := oa.OuterGraph().ID().Child(oa.OuterIndex()).Child(level*1000 + i/2)
			g, err := b.buildOperator(childID)
			if err != nil {
				return err
			}
			b.lhsInput(g).BindOutput(cur[i])
			b.rhsInput(g).BindOutput(cur[i+1])
			for _, n := range g.Nodes() {
				_ = n.Initialise()
				if err := n.Start(b.ctxFactory(n)); err != nil {
					return err
				}
			}
			g.ScheduleNode(0, t.Add(engtime.MinTD), false)
			b.levels = append(b.levels, []*graph.Graph{g})
			next = append(next, b.innerOutput(g))
		}
		cur = next
		level++
	}
	if len(cur) == 0 && b.zero != nil {
		cur = []ts.Output{b.zero}
	}
	if len(cur) == 1 {
		b.levelOut = [][]ts.Output{{cur[0]}}
	}
	return nil
}

func (b *ReduceBody) disposeTree() {
	for _, lvl := range b.levels {
		for _, g := range lvl {
			for i := len(g.Nodes()) - 1; i >= 0; i-- {
				n := g.Nodes()[i]
				n.Stop(b.ctxFactory(n))
				n.Dispose()
			}
		}
	}
	b.levels = nil
	b.levelOut = nil
}

func (b *ReduceBody) Eval(ctx builder.Context) error {
	oa := ctx.(OuterAccess)
	t := oa.Clock().EvaluationTime()

	in := ctx.Input(b.listInputName)
	d, _ := in.Bound().(*ts.Dict)
	if d == nil {
		return nil
	}

	changed := b.syncLeaves(d, t)
	if changed || len(b.levels) == 0 {
		if err := b.rebuildTree(oa, t); err != nil {
			return err
		}
	}
	for _, lvl := range b.levels {
		for _, g := range lvl {
			if err := EvalChildToFixedPoint(g, b.ctxFactory, t); err != nil {
				return err
			}
		}
	}

	if len(b.levelOut) == 0 {
		return nil
	}
	result := b.levelOut[len(b.levelOut)-1][0]
	if dst, ok := ctx.Output().(*ts.Ref); ok {
		dst.Rebind(t, ts.PeeredReference(result))
	}
	return nil
}

func (b *ReduceBody) Stop(ctx builder.Context) {
	b.disposeTree()
}
