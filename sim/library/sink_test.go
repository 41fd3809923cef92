package library

import (
	"testing"

	"github.com/devsim/devsim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_RecordsValuesAndArrivalTimes(t *testing.T) {
	s := NewSink("s")
	assert.True(t, s.TimeAdvance().IsInfinite())

	in := mustPort(t, s.InPorts(), "in")
	require.NoError(t, in.WriteAll(1, 2))
	require.NoError(t, s.ExternalTransition(3, 3))
	assert.Equal(t, []int{1, 2}, s.Received)
	assert.Equal(t, []sim.Time{3, 3}, s.Arrivals)
}
