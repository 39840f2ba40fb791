package pushqueue

import (
	"testing"

	"github.com/reactiveflow/tsgraph/tserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueDrainFIFOOrder(t *testing.T) {
	q := New(nil)
	require.NoError(t, q.Enqueue(Message{NodeIndex: 0, Payload: 1}))
	require.NoError(t, q.Enqueue(Message{NodeIndex: 1, Payload: 2}))

	msgs := q.Drain()
	assert.Equal(t, []Message{{0, 1}, {1, 2}}, msgs)
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}

func TestEnqueueCallsOnSignal(t *testing.T) {
	calls := 0
	q := New(func() { calls++ })
	require.NoError(t, q.Enqueue(Message{NodeIndex: 0, Payload: nil}))
	assert.Equal(t, 1, calls)
}

func TestEnqueueAfterStopIsDroppedNotBlocking(t *testing.T) {
	q := New(nil)
	q.Stop()
	assert.True(t, q.Stopped())
	err := q.Enqueue(Message{NodeIndex: 0, Payload: 1})
	assert.ErrorIs(t, err, tserrors.ErrPushQueueClosed)
	assert.Empty(t, q.Drain())
}

func TestStopIsIdempotent(t *testing.T) {
	q := New(nil)
	q.Stop()
	q.Stop()
	assert.True(t, q.Stopped())
}
