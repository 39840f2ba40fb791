package nested

import (
	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/graph"
	"github.com/reactiveflow/tsgraph/ts"
	"github.com/reactiveflow/tsgraph/tserrors"
)

// MeshState is the per-key state machine the design notes require be
// represented as an explicit enum rather than implicit flags.
type MeshState int

const (
	MeshAbsent MeshState = iota
	MeshActive
	MeshScheduled
	MeshEvaluating
	MeshRemoved
)

type meshKey struct {
	state MeshState
	rank  int
	g     *graph.Graph
	input *ts.Input
	out   ts.Output
	deps  []string
}

// DependencyResolver tells the mesh which other keys a given key declares
// a dependency on, discovered from the child graph's own context path
// once instantiated (kept abstract here since wiring is out of scope).
type DependencyResolver func(g *graph.Graph) []string

// MeshBody is the `mesh` node: like map, but children may depend on other
// keys. Evaluation proceeds rank by rank within a tick; a key's rank is
// the longest dependency chain from a root (no-dependency key). Ranks are
// recomputed from every key's current dependencies at the start of each
// visit and applied before any rank is evaluated, so no rank changes while
// a rank is being evaluated.
type MeshBody struct {
	instantiate    InstantiateKeyed
	resolveDeps    DependencyResolver
	multiplexed    func(g *graph.Graph) *ts.Input
	innerOutput    func(g *graph.Graph) ts.Output
	ctxFactory     func(n *graph.Node) builder.Context
	keyedInputName string

	keys      map[string]*meshKey
	pending   map[string]int // key -> newly computed rank, applied before the rank loop
}

func NewMesh(
	instantiate InstantiateKeyed,
	resolveDeps DependencyResolver,
	multiplexed func(g *graph.Graph) *ts.Input,
	innerOutput func(g *graph.Graph) ts.Output,
	ctxFactory func(n *graph.Node) builder.Context,
	keyedInputName string,
) *MeshBody {
	return &MeshBody{
		instantiate:    instantiate,
		resolveDeps:    resolveDeps,
		multiplexed:    multiplexed,
		innerOutput:    innerOutput,
		ctxFactory:     ctxFactory,
		keyedInputName: keyedInputName,
		keys:           make(map[string]*meshKey),
		pending:        make(map[string]int),
	}
}

func (b *MeshBody) Start(ctx builder.Context) error { return nil }

// computeRank walks deps to find the longest chain from a root, erroring
// with a CycleError-worthy path if the walk revisits a key already on the
// current path.
func (b *MeshBody) computeRank(key string, visiting map[string]bool) (int, []string, error) {
	if visiting[key] {
		return 0, []string{key}, tserrors.NewCycleError(key, []string{key})
	}
	mk, ok := b.keys[key]
	if !ok || len(mk.deps) == 0 {
		return 0, nil, nil
	}
	visiting[key] = true
	defer delete(visiting, key)

	max := -1
	var chain []string
	for _, dep := range mk.deps {
		r, c, err := b.computeRank(dep, visiting)
		if err != nil {
			return 0, append([]string{key}, c...), err
		}
		if r > max {
			max = r
			chain = c
		}
	}
	return max + 1, append([]string{key}, chain...), nil
}

func (b *MeshBody) Eval(ctx builder.Context) error {
	oa := ctx.(OuterAccess)
	t := oa.Clock().EvaluationTime()
	d, _ := ctx.Input(b.keyedInputName).Bound().(*ts.Dict)
	if d == nil {
		return nil
	}
	outDict, _ := ctx.Output().(*ts.Dict)
	errOut, _ := ctx.ErrorOutput().(*ts.Scalar[*tserrors.NodeError])

	for key := range d.AddedKeys(t) {
		childID := oa.OuterGraph().ID().Child(oa.OuterIndex())
		g, err := b.instantiate(childID, key)
		if err != nil {
			return err
		}
		valueOut, _ := d.Get(key)
		mux := b.multiplexed(g)
		mux.BindOutput(valueOut)
		for _, n := range g.Nodes() {
			_ = n.Initialise()
			if err := n.Start(b.ctxFactory(n)); err != nil {
				return err
			}
		}
		mk := &meshKey{state: MeshActive, g: g, input: mux, out: b.innerOutput(g), deps: b.resolveDeps(g)}
		b.keys[key] = mk
		if rank, _, err := b.computeRank(key, map[string]bool{}); err == nil {
			mk.rank = rank
		}
		g.ScheduleNode(0, t.Add(engtime.MinTD), false)
		if outDict != nil {
			outDict.Put(t, key)
		}
	}

	for key := range d.RemovedKeys(t) {
		mk, ok := b.keys[key]
		if !ok {
			continue
		}
		for i := len(mk.g.Nodes()) - 1; i >= 0; i-- {
			n := mk.g.Nodes()[i]
			n.Stop(b.ctxFactory(n))
			n.Dispose()
		}
		mk.state = MeshRemoved
		delete(b.keys, key)
		if outDict != nil {
			outDict.Remove(t, key)
		}
	}

	// Recompute ranks for any key whose dependency set may have changed;
	// the results are queued and applied together below, before the
	// rank-by-rank evaluation starts.
	for key, mk := range b.keys {
		newDeps := b.resolveDeps(mk.g)
		mk.deps = newDeps
		rank, chain, err := b.computeRank(key, map[string]bool{})
		if err != nil {
			if errOut != nil {
				errOut.ApplyResult(t, tserrors.NewNodeError("mesh", key, t, err, "", nil))
			}
			continue
		}
		if rank != mk.rank {
			b.pending[key] = rank
		}
		_ = chain
	}
	for key, rank := range b.pending {
		if mk, ok := b.keys[key]; ok {
			mk.rank = rank
		}
	}
	b.pending = make(map[string]int)

	maxRank := -1
	for _, mk := range b.keys {
		if mk.rank > maxRank {
			maxRank = mk.rank
		}
	}
	for rank := 0; rank <= maxRank; rank++ {
		for key, mk := range b.keys {
			if mk.rank != rank {
				continue
			}
			mk.state = MeshEvaluating
			if err := EvalChildToFixedPoint(mk.g, b.ctxFactory, t); err != nil {
				return err
			}
			mk.state = MeshActive
			if outDict != nil && mk.out.Modified(t) {
				ref := outDict.Put(t, key)
				if r, ok := ref.(*ts.Ref); ok {
					r.Rebind(t, ts.PeeredReference(mk.out))
				}
			}
		}
	}
	return nil
}

func (b *MeshBody) Stop(ctx builder.Context) {
	for key, mk := range b.keys {
		for i := len(mk.g.Nodes()) - 1; i >= 0; i-- {
			n := mk.g.Nodes()[i]
			n.Stop(b.ctxFactory(n))
			n.Dispose()
		}
		delete(b.keys, key)
	}
}
