package nested

import (
	"errors"

	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/ts"
)

// Instantiate builds a fresh child graph with the given nested ID, already
// fully wired and node-bodied by the wiring layer; constructing the
// graph's own node set from a declarative spec stays out of scope here.
type Instantiate func(id graph.ID) (*graph.Graph, error)

// NestedGraphBody is the `nested_graph` node: a single, fixed inner graph
// whose declared inputs are peered to named fields of the outer node's
// input bundle, and whose designated output node is aliased onto the
// outer node's output through the REF indirection (see §9's note on
// keeping the reference resolution path explicit).
type NestedGraphBody struct {
	instantiate  Instantiate
	fieldMapping map[string]string // inner input field name -> outer bundle field name
	outputField  string            // inner graph declared output name
	innerInputs  func(g *graph.Graph) map[string]*ts.Input
	innerOutput  func(g *graph.Graph) ts.Output
	ctxFactory   func(n *graph.Node) builder.Context

	child *graph.Graph
}

func NewNestedGraph(
	instantiate Instantiate,
	fieldMapping map[string]string,
	outputField string,
	innerInputs func(g *graph.Graph) map[string]*ts.Input,
	innerOutput func(g *graph.Graph) ts.Output,
	ctxFactory func(n *graph.Node) builder.Context,
) *NestedGraphBody {
	return &NestedGraphBody{
		instantiate:  instantiate,
		fieldMapping: fieldMapping,
		outputField:  outputField,
		innerInputs:  innerInputs,
		innerOutput:  innerOutput,
		ctxFactory:   ctxFactory,
	}
}

func (b *NestedGraphBody) Start(ctx builder.Context) error {
	oa, ok := ctx.(OuterAccess)
	if !ok {
		return errors.New("nested: node context does not implement OuterAccess")
	}
	childID := oa.OuterGraph().ID().Child(oa.OuterIndex())
	child, err := b.instantiate(childID)
	if err != nil {
		return err
	}
	b.child = child

	bundleIn := ctx.Input("")
	bundle, _ := bundleIn.Bound().(*ts.Bundle)
	innerIns := b.innerInputs(child)
	for innerName, outerField := range b.fieldMapping {
		in, ok := innerIns[innerName]
		if !ok || bundle == nil {
			continue
		}
		in.BindOutput(bundle.Field(outerField))
	}

	if ref, ok := ctx.Output().(*ts.Ref); ok {
		ref.Rebind(oa.Clock().EvaluationTime(), ts.PeeredReference(b.innerOutput(child)))
	}
	return nil
}

func (b *NestedGraphBody) Eval(ctx builder.Context) error {
	oa := ctx.(OuterAccess)
	return EvalChildToFixedPoint(b.child, b.ctxFactory, oa.Clock().EvaluationTime())
}

func (b *NestedGraphBody) Stop(ctx builder.Context) {
	if b.child == nil {
		return
	}
	for i := len(b.child.Nodes()) - 1; i >= 0; i-- {
		n := b.child.Nodes()[i]
		n.Stop(b.ctxFactory(n))
		n.Dispose()
	}
}
