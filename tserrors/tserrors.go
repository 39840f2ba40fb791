// Package tserrors implements the failure taxonomy: wiring/binding errors
// that abort graph construction, captured node runtime errors routed to a
// node's error output, scheduling clamps, dropped push messages, and mesh
// cycle detection. Every error type that carries a cause exposes it through
// Unwrap, so errors.Is/As reach the original failure; github.com/pkg/errors
// supplies ErrPushQueueClosed and the NodeRuntimeError message prefix.
package tserrors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/reactiveflow/tsgraph/engtime"
)

// WiringError reports an edge pointing at a missing port or an
// incompatible kind, detected during graph initialise. Always fatal.
type WiringError struct {
	GraphID string
	NodeID  string
	Path    string
	cause   error
}

func NewWiringError(graphID, nodeID, path string, cause error) *WiringError {
	return &WiringError{GraphID: graphID, NodeID: nodeID, Path: path, cause: cause}
}

func (e *WiringError) Error() string {
	return fmt.Sprintf("wiring error: graph=%s node=%s path=%s: %v", e.GraphID, e.NodeID, e.Path, e.cause)
}

func (e *WiringError) Unwrap() error { return e.cause }

// BindingError reports an attempt to bind an input to an output of an
// incompatible kind. Always fatal.
type BindingError struct {
	InputPath  string
	OutputPath string
	cause      error
}

func NewBindingError(inputPath, outputPath string, cause error) *BindingError {
	return &BindingError{InputPath: inputPath, OutputPath: outputPath, cause: cause}
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("binding error: input=%s output=%s: %v", e.InputPath, e.OutputPath, e.cause)
}

func (e *BindingError) Unwrap() error { return e.cause }

// ActivationEntry records one input that was active and ticked at the time
// a NodeRuntimeError was captured, forming the activation trace §4.5/§7
// require for diagnosing why a node body ran.
type ActivationEntry struct {
	InputPath string
	Time      engtime.Time
}

// NodeError is the structured record written to a node's error output, or
// wrapped into a NodeRuntimeError and propagated when the node has none.
// It carries everything §4.5/§7 require: a signature snapshot, the wiring
// path to the failing node, the message, a captured back-trace and the
// activation trace of inputs that were active when the body raised.
type NodeError struct {
	Signature       string
	WiringPath      string
	Message         string
	Backtrace       string
	ActivationTrace []ActivationEntry
	Time            engtime.Time
	cause           error
}

func NewNodeError(signature, wiringPath string, t engtime.Time, cause error, backtrace string, trace []ActivationEntry) *NodeError {
	return &NodeError{
		Signature:       signature,
		WiringPath:      wiringPath,
		Message:         cause.Error(),
		Backtrace:       backtrace,
		ActivationTrace: trace,
		Time:            t,
		cause:           cause,
	}
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node error: %s (%s) at %s: %s", e.Signature, e.WiringPath, e.Time, e.Message)
}

func (e *NodeError) Unwrap() error { return e.cause }

// NodeRuntimeError wraps a NodeError for the case where the raising node
// has no error output and the exception must propagate out of the graph.
type NodeRuntimeError struct {
	*NodeError
}

func NewNodeRuntimeError(ne *NodeError) *NodeRuntimeError {
	return &NodeRuntimeError{NodeError: ne}
}

func (e *NodeRuntimeError) Error() string {
	return errors.Wrap(e.NodeError, "node runtime error").Error()
}

// ErrPushQueueClosed is returned by pushqueue.Queue.Enqueue once the queue
// has been stopped; the message is dropped rather than delivered, and the
// producer must not block.
var ErrPushQueueClosed = errors.New("push queue closed")

// ScheduleError is not itself returned to callers — the scheduler clamps
// the requested time per §7 rather than rejecting it — but it is kept as a
// named type so observers/diagnostics can report the clamp uniformly.
type ScheduleError struct {
	Requested engtime.Time
	Clamped   engtime.Time
	NodeID    string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("schedule error: node=%s requested=%s clamped to %s", e.NodeID, e.Requested, e.Clamped)
}

// CycleError reports that re-ranking a mesh would introduce a dependency
// cycle. It is written to the offending node's error output, never
// propagated, per §7.
type CycleError struct {
	Key   string
	Chain []string
}

func NewCycleError(key string, chain []string) *CycleError {
	return &CycleError{Key: key, Chain: chain}
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle error: key=%s chain=%v", e.Key, e.Chain)
}
