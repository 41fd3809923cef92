package library

import (
	"testing"

	"github.com/devsim/devsim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_ServesInArrivalOrder(t *testing.T) {
	q := NewQueue("q", 2)
	assert.True(t, q.TimeAdvance().IsInfinite(), "idle queue is passive")

	in := mustPort(t, q.InPorts(), "in")
	require.NoError(t, in.WriteAll(7, 8))
	require.NoError(t, q.ExternalTransition(0, 0))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, sim.Time(2), q.TimeAdvance())

	out := mustPort(t, q.OutPorts(), "out")
	require.NoError(t, q.Output(2))
	v, _ := sim.ReadAs[int](out)
	assert.Equal(t, 7, v)
	require.NoError(t, q.InternalTransition(2))
	assert.Equal(t, sim.Time(2), q.TimeAdvance(), "next job starts service")

	require.NoError(t, q.Output(4))
	v, _ = sim.ReadAs[int](out)
	assert.Equal(t, 8, v)
	require.NoError(t, q.InternalTransition(4))
	assert.True(t, q.TimeAdvance().IsInfinite())
	assert.Equal(t, 2, q.Served())
}

func TestQueue_ArrivalWhileBusyKeepsRemainingService(t *testing.T) {
	q := NewQueue("q", 3)
	in := mustPort(t, q.InPorts(), "in")
	require.NoError(t, in.Write(1))
	require.NoError(t, q.ExternalTransition(0, 0))
	in.Clear()

	require.NoError(t, in.Write(2))
	require.NoError(t, q.ExternalTransition(1, 1))
	assert.Equal(t, sim.Time(2), q.TimeAdvance())
	assert.Equal(t, 2, q.Len())
}

func TestQueue_InternalTransitionWhenEmpty(t *testing.T) {
	q := NewQueue("q", 1)

	require.NoError(t, q.Output(0))
	require.NoError(t, q.InternalTransition(0))

	assert.Equal(t, 0, q.Served())
	assert.True(t, q.TimeAdvance().IsInfinite())
}
