package graph

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/reactiveflow/tsgraph/builder"
	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/reactiveflow/tsgraph/expvar"
	"github.com/reactiveflow/tsgraph/scheduler"
	"github.com/reactiveflow/tsgraph/timer"
	"github.com/reactiveflow/tsgraph/ts"
	"github.com/reactiveflow/tsgraph/tserrors"
)

// State is a node's position in the construct/initialise/start/stop/
// dispose lifecycle. Every transition is guarded so re-entry is a no-op,
// matching the node lifecycle's idempotent double start/stop requirement.
type State int

const (
	Constructed State = iota
	Initialised
	Started
	Stopped
	Disposed
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Initialised:
		return "initialised"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Body is the opaque, user-authored callable set a node wraps: a start
// hook, the per-cycle eval body, and a stop hook. The engine does not
// interpret their contents, only invokes them through a builder.Context.
type Body interface {
	Start(ctx builder.Context) error
	Eval(ctx builder.Context) error
	Stop(ctx builder.Context)
}

// Node is the lifecycle object owning a node's scalars, inputs, outputs
// and optional scheduler, modeled on the teacher's node struct and its
// init/start/stop/Wait state machine, generalized from stream processing
// to arbitrary time-series node bodies.
type Node struct {
	index           int
	id              NodeID
	signature       builder.Signature
	scalars         map[string]interface{}
	inputs          map[string]*ts.Input
	output          ts.Output
	errorOutput     ts.Output
	recordableState ts.Output
	sched           *scheduler.NodeScheduler
	body            Body
	isPushSource    bool
	captureException bool

	state  State
	logger *log.Logger
	timer  timer.Timer
	stats  *expvar.Map
}

// NewNode constructs a node in the "constructed" state. captureException
// controls the §4.5 error routing policy: when true and an error output is
// present, a raised error is captured as a NodeError instead of
// propagating.
func NewNode(
	id NodeID,
	sig builder.Signature,
	scalars map[string]interface{},
	inputs map[string]*ts.Input,
	output, errorOutput, recordableState ts.Output,
	body Body,
	isPushSource, captureException bool,
	logger *log.Logger,
) *Node {
	return &Node{
		index:            id.Index,
		id:               id,
		signature:        sig,
		scalars:          scalars,
		inputs:           inputs,
		output:           output,
		errorOutput:      errorOutput,
		recordableState:  recordableState,
		sched:            scheduler.New(),
		body:             body,
		isPushSource:     isPushSource,
		captureException: captureException,
		state:            Constructed,
		logger:           logger,
		timer:            timer.New(1.0, 32),
		stats:            new(expvar.Map).Init(),
	}
}

func (n *Node) Index() int                  { return n.index }
func (n *Node) ID() NodeID                  { return n.id }
func (n *Node) Kind() string                { return n.signature.Kind }
func (n *Node) State() State                { return n.state }
func (n *Node) IsPushSource() bool          { return n.isPushSource }
func (n *Node) Output() ts.Output           { return n.output }
func (n *Node) ErrorOutput() ts.Output      { return n.errorOutput }
func (n *Node) RecordableState() ts.Output  { return n.recordableState }
func (n *Node) Scheduler() *scheduler.NodeScheduler { return n.sched }
func (n *Node) Input(path string) *ts.Input { return n.inputs[path] }
func (n *Node) Scalars() map[string]interface{} { return n.scalars }
func (n *Node) Body() Body                  { return n.body }
func (n *Node) Stats() *expvar.Map          { return n.stats }

// SetOutput overrides this node's output port. Used by nested-graph node
// bodies to alias the outer output to an inner child graph's designated
// output, and by test fakes; ordinary node bodies never call this.
func (n *Node) SetOutput(out ts.Output) { n.output = out }

// Initialise transitions constructed -> initialised. Wiring (allocating
// inputs/outputs, setting parent pointers) has already happened by the
// time NewNode is called in this implementation, so Initialise only
// advances the state guard; it is the hook nested-graph construction uses
// to know when child wiring may proceed.
func (n *Node) Initialise() error {
	if n.state != Constructed {
		return nil
	}
	n.state = Initialised
	return nil
}

// Start transitions initialised -> started: calls the body's start hook and
// leaves scheduling of initial work to that hook. Push sources are not
// registered here or in graph.Graph; the engine delivers a drained message
// to any node whose index lies in the graph's push-source range.
func (n *Node) Start(ctx builder.Context) (err error) {
	if n.state != Initialised {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(fmt.Errorf("%v", r), "node %s panicked during start", n.id)
		}
	}()
	if n.body != nil {
		if err = n.body.Start(ctx); err != nil {
			return errors.Wrapf(err, "node %s failed to start", n.id)
		}
	}
	n.state = Started
	return nil
}

// Eval invokes the body's per-cycle evaluation, timing it and capturing
// any error per the §4.5/§4.8 policy: if an error output exists and
// captureException is set, a tserrors.NodeError is written there and
// evaluation continues; otherwise the error is wrapped and returned for
// the engine to treat as fatal.
func (n *Node) Eval(ctx builder.Context, t engtime.Time) (err error) {
	n.timer.Start()
	defer n.timer.Stop()
	n.stats.Add("eval_count", 1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	if n.body == nil {
		return nil
	}
	if evalErr := n.body.Eval(ctx); evalErr != nil {
		return n.handleEvalError(ctx, t, evalErr)
	}
	return nil
}

func (n *Node) handleEvalError(ctx builder.Context, t engtime.Time, cause error) error {
	n.stats.Add("error_count", 1)
	trace := n.activationTrace(t)
	ne := tserrors.NewNodeError(n.signature.Kind, n.id.String(), t, cause, string(debug.Stack()), trace)

	if n.errorOutput != nil && n.captureException {
		if so, ok := n.errorOutput.(*ts.Scalar[*tserrors.NodeError]); ok {
			so.ApplyResult(t, ne)
		} else {
			n.errorOutput.MarkModified(t)
		}
		if n.logger != nil {
			n.logger.Printf("E! node %s captured error: %v", n.id, cause)
		}
		return nil
	}
	return tserrors.NewNodeRuntimeError(ne)
}

// activationTrace enumerates the active inputs that ticked at t, for
// inclusion in a captured NodeError.
func (n *Node) activationTrace(t engtime.Time) []tserrors.ActivationEntry {
	var trace []tserrors.ActivationEntry
	for path, in := range n.inputs {
		if in.IsActive() && in.Modified(t) {
			trace = append(trace, tserrors.ActivationEntry{InputPath: path, Time: t})
		}
	}
	return trace
}

// Stop transitions started -> stopped: calls the body's stop hook and
// clears pending scheduled work for this node. Nothing is deregistered: a
// stopped push source keeps its index in the graph's push-source range.
func (n *Node) Stop(ctx builder.Context) {
	if n.state != Started {
		return
	}
	if n.body != nil {
		n.body.Stop(ctx)
	}
	n.sched.UnSchedule("")
	n.state = Stopped
}

// Dispose transitions stopped -> disposed: unbinds every input (removing
// its subscription if still active). Outputs and their subscriber lists
// are left as they are.
func (n *Node) Dispose() {
	if n.state != Stopped {
		return
	}
	for _, in := range n.inputs {
		in.UnbindOutput()
	}
	n.state = Disposed
}
