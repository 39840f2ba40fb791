package nested

import (
	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/ts"
)

// mapChild bundles the per-key state the map node tracks: the child
// graph, its declared multiplexed-input handle and output.
type mapChild struct {
	g     *graph.Graph
	input *ts.Input
	out   ts.Output
}

// InstantiateKeyed builds the child graph for one key of a map/mesh node.
type InstantiateKeyed func(id graph.ID, key string) (*graph.Graph, error)

// MapBody is the `map` node: one child graph per key of a keyed input,
// multiplexed args fanned in per key, non-multiplexed args shared across
// every child. Key churn drives child instantiation/disposal; at each
// visit every live child is driven to a fixed point, which runs only the
// child nodes that are due.
type MapBody struct {
	instantiate    InstantiateKeyed
	multiplexed    func(g *graph.Graph) *ts.Input // the per-key fan-in input inside the child graph
	innerOutput    func(g *graph.Graph) ts.Output
	ctxFactory     func(n *graph.Node) builder.Context
	keyedInputName string // name of the outer node's TSD-typed input providing keys/values

	children map[string]*mapChild
}

func NewMap(
	instantiate InstantiateKeyed,
	multiplexed func(g *graph.Graph) *ts.Input,
	innerOutput func(g *graph.Graph) ts.Output,
	ctxFactory func(n *graph.Node) builder.Context,
	keyedInputName string,
) *MapBody {
	return &MapBody{
		instantiate:    instantiate,
		multiplexed:    multiplexed,
		innerOutput:    innerOutput,
		ctxFactory:     ctxFactory,
		keyedInputName: keyedInputName,
		children:       make(map[string]*mapChild),
	}
}

func (b *MapBody) Start(ctx builder.Context) error { return nil }

func (b *MapBody) keyedDict(ctx builder.Context) *ts.Dict {
	in := ctx.Input(b.keyedInputName)
	d, _ := in.Bound().(*ts.Dict)
	return d
}

func (b *MapBody) Eval(ctx builder.Context) error {
	oa := ctx.(OuterAccess)
	t := oa.Clock().EvaluationTime()
	d := b.keyedDict(ctx)
	if d == nil {
		return nil
	}

	outDict, _ := ctx.Output().(*ts.Dict)

	for key := range d.AddedKeys(t) {
		childID := oa.OuterGraph().ID().Child(oa.OuterIndex())
		child, err := b.instantiate(childID, key)
		if err != nil {
			return err
		}
		valueOut, _ := d.Get(key)
		mux := b.multiplexed(child)
		mux.BindOutput(valueOut)
		for _, n := range child.Nodes() {
			_ = n.Initialise()
			if err := n.Start(b.ctxFactory(n)); err != nil {
				return err
			}
		}
		mc := &mapChild{g: child, input: mux, out: b.innerOutput(child)}
		b.children[key] = mc
		// Node 0 is the child graph's designated entry point, by convention
		// of the wiring layer that built it.
		child.ScheduleNode(0, t.Add(engtime.MinTD), false)
		if outDict != nil {
			outDict.Put(t, key)
		}
	}

	for key := range d.RemovedKeys(t) {
		mc, ok := b.children[key]
		if !ok {
			continue
		}
		for i := len(mc.g.Nodes()) - 1; i >= 0; i-- {
			n := mc.g.Nodes()[i]
			n.Stop(b.ctxFactory(n))
			n.Dispose()
		}
		delete(b.children, key)
		if outDict != nil {
			outDict.Remove(t, key)
		}
	}

	for key, mc := range b.children {
		if err := EvalChildToFixedPoint(mc.g, b.ctxFactory, t); err != nil {
			return err
		}
		if outDict != nil && mc.out.Modified(t) {
			ref := outDict.Put(t, key)
			if r, ok := ref.(*ts.Ref); ok {
				r.Rebind(t, ts.PeeredReference(mc.out))
			}
		}
	}
	return nil
}

func (b *MapBody) Stop(ctx builder.Context) {
	for key, mc := range b.children {
		for i := len(mc.g.Nodes()) - 1; i >= 0; i-- {
			n := mc.g.Nodes()[i]
			n.Stop(b.ctxFactory(n))
			n.Dispose()
		}
		delete(b.children, key)
	}
}
