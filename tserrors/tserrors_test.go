package tserrors

import (
	"errors"
	"testing"

	"github.com/reactiveflow/tsgraph/engtime"
	"github.com/stretchr/testify/assert"
)

func TestWiringErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	we := NewWiringError("[1]", "[1]:2", "in", cause)
	assert.ErrorIs(t, we, cause)
	assert.Contains(t, we.Error(), "boom")
}

func TestNodeRuntimeErrorWrapsNodeError(t *testing.T) {
	cause := errors.New("div by zero")
	ne := NewNodeError("add", "[0]:3", engtime.Time(5), cause, "", nil)
	nre := NewNodeRuntimeError(ne)
	assert.ErrorIs(t, nre, cause)
	assert.Contains(t, nre.Error(), "add")
}

func TestCycleErrorReportsChain(t *testing.T) {
	ce := NewCycleError("a", []string{"a", "b", "a"})
	assert.Contains(t, ce.Error(), "a")
	assert.Contains(t, ce.Error(), "b")
}

func TestPushQueueClosedSentinel(t *testing.T) {
	assert.EqualError(t, ErrPushQueueClosed, "push queue closed")
}
