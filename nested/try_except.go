package nested

import (
	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/ts"
	"github.com/reactiveflow/tsgraph/tserrors"
)

// TryExceptBody evaluates a child graph and, on exception, writes a
// NodeError to the outer error output instead of letting the error
// propagate. The child is stopped on error and rebuilt and restarted at
// the node's next evaluation.
type TryExceptBody struct {
	instantiate Instantiate
	innerInput  func(g *graph.Graph) *ts.Input
	innerOutput func(g *graph.Graph) ts.Output
	ctxFactory  func(n *graph.Node) builder.Context

	child   *graph.Graph
	running bool
}

func NewTryExcept(
	instantiate Instantiate,
	innerInput func(g *graph.Graph) *ts.Input,
	innerOutput func(g *graph.Graph) ts.Output,
	ctxFactory func(n *graph.Node) builder.Context,
) *TryExceptBody {
	return &TryExceptBody{instantiate: instantiate, innerInput: innerInput, innerOutput: innerOutput, ctxFactory: ctxFactory}
}

func (b *TryExceptBody) start(oa OuterAccess) error {
	childID := oa.OuterGraph().ID().Child(oa.OuterIndex())
	child, err := b.instantiate(childID)
	if err != nil {
		return err
	}
	b.child = child
	in := b.innerInput(child)
	in.BindOutput(oa.Input("in").Bound())
	for _, n := range child.Nodes() {
		if err := n.Initialise(); err != nil {
			return err
		}
		if err := n.Start(b.ctxFactory(n)); err != nil {
			return err
		}
	}
	b.running = true
	return nil
}

func (b *TryExceptBody) Start(ctx builder.Context) error {
	oa := ctx.(OuterAccess)
	return b.start(oa)
}

func (b *TryExceptBody) Eval(ctx builder.Context) error {
	oa := ctx.(OuterAccess)
	t := oa.Clock().EvaluationTime()

	if !b.running {
		// Restart at the first evaluation after a prior failure.
		if err := b.start(oa); err != nil {
			return err
		}
	}

	err := EvalChildToFixedPoint(b.child, b.ctxFactory, t)
	if err != nil {
		b.stopChild()
		if errOut, ok := ctx.ErrorOutput().(*ts.Scalar[*tserrors.NodeError]); ok {
			ne := tserrors.NewNodeError("try_except", oa.OuterGraph().ID().Child(oa.OuterIndex()).String(), t, err, "", nil)
			errOut.ApplyResult(t, ne)
		}
		return nil
	}

	out := b.innerOutput(b.child)
	if out.Modified(t) {
		if dst, ok := ctx.Output().(*ts.Ref); ok {
			dst.Rebind(t, ts.PeeredReference(out))
		}
	}
	return nil
}

func (b *TryExceptBody) stopChild() {
	if b.child == nil {
		return
	}
	for i := len(b.child.Nodes()) - 1; i >= 0; i-- {
		n := b.child.Nodes()[i]
		n.Stop(b.ctxFactory(n))
		n.Dispose()
	}
	b.running = false
}

func (b *TryExceptBody) Stop(ctx builder.Context) {
	b.stopChild()
}
