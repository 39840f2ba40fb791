// Package builder hosts the contracts the wiring layer is expected to
// satisfy and the node-body-facing Context it hands user code. The wiring
// layer itself — translating a declarative spec into these builders — is
// deliberately out of scope; this package only fixes the shapes it must
// produce, modeled on the teacher's pipeline.Node/pipeline.ID contracts
// with the TICKscript-specific parts removed.
package builder

import (
	"github.com/reactiveflow/tsgraph/clock"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/scheduler"
	"github.com/reactiveflow/tsgraph/ts"
)

// Signature is the static metadata a node carries for diagnostics and
// wiring validation: its kind name, declared argument names, which of
// those are active by default, and the names of any injected dependencies
// (clock, scheduler access, and the like).
type Signature struct {
	Kind         string
	ArgNames     []string
	ActiveInputs map[string]bool
	Injectables  []string
}

// PathElem is one step of a child accessor path into a nested output or
// input: a bundle field name, a list element index, or a dict key.
type PathElem struct {
	Field string
	Index int
	Key   string
}

// Path is a sequence of child accessors, root-first.
type Path []PathElem

func FieldPath(name string) Path { return Path{{Field: name}} }

// Edge is the tuple the wiring layer supplies per connection: which
// node's output (at a nested path) feeds which other node's input (at a
// nested path).
type Edge struct {
	SrcNodeIndex int
	OutputPath   Path
	DstNodeIndex int
	InputPath    Path
}

// OutputBuilder materialises the ts.Output for one node's primary,
// error, or recordable-state output port.
type OutputBuilder interface {
	Path() string
	Build() ts.Output
}

// InputBuilder materialises the ts.Input bundle for one node, given the
// Subscriber the owning node registers as.
type InputBuilder interface {
	Path() string
	Build(owner ts.Subscriber) *ts.Input
}

// NodeBuilder carries everything needed to materialise one node: its
// signature, static scalar config, and the builders for whichever of
// input/output/error-output/recordable-state it declares.
type NodeBuilder interface {
	Signature() Signature
	Scalars() map[string]interface{}
	InputBuilder() InputBuilder
	OutputBuilder() OutputBuilder
	ErrorOutputBuilder() OutputBuilder
	RecordableStateBuilder() OutputBuilder
}

// NestedGraphBuilder additionally supplies, for a nested-graph node, the
// inner graph's own builder, the mapping from inner node names to outer
// input/output field names, and which inner node is the designated output
// node.
type NestedGraphBuilder interface {
	NodeBuilder
	InnerGraph() GraphBuilder
	FieldMapping() map[string]string
	OutputNodeName() string
}

// GraphBuilder yields a graph's node builders in declaration order plus
// the edge set connecting them.
type GraphBuilder interface {
	NodeBuilders() []NodeBuilder
	Edges() []Edge
}

// EvaluationMode mirrors clock.Mode for the subset exposed to node
// bodies through Context.
type EvaluationMode int

const (
	Simulation EvaluationMode = iota
	RealTime
)

// Context is the interface exposed to user-authored node bodies: read
// access to inputs and scalars, write access to outputs, the per-node
// scheduler, and read-only engine metadata. User node bodies themselves
// stay out of scope; this is the surface they are written against.
type Context interface {
	Input(path string) *ts.Input
	Output() ts.Output
	ErrorOutput() ts.Output
	RecordableState() ts.Output
	Scalars() map[string]interface{}
	Scheduler() *scheduler.NodeScheduler

	EvaluationMode() EvaluationMode
	StartTime() engtime.Time
	EndTime() engtime.Time
	Clock() clock.EngineClock
	RequestEngineStop()
}
