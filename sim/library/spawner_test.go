package library

import (
	"testing"

	"github.com/devsim/devsim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sinkOf(t *testing.T, root *sim.Coupled, name string) *Sink {
	t.Helper()
	m, ok := root.Submodel(name)
	require.True(t, ok, "submodel %q", name)
	return m.(*Sink)
}

// The spawner fires at t=1..4 with max=2. After the step at t=k:
//   - sink-k exists, fed by tap-k and by "out"
//   - sink-(k-2) and its tap are gone
func TestSpawner_GrowsAndShrinksParent(t *testing.T) {
	spawner := NewSpawner("sp", 1, 2, 4)
	root := sim.NewCoupled("root").MustAdd(spawner)

	s, err := sim.NewSimulator(root, sim.Config{})
	require.NoError(t, err)

	// t=1: first sink appears
	_, ok, err := s.Advance()
	require.NoError(t, err)
	require.True(t, ok)
	assert.ElementsMatch(t, []sim.Coupling{
		sim.Couple("sp", "tap-1", "sp-sink-1", "in"),
		sim.Couple("sp", "out", "sp-sink-1", "in"),
	}, root.Couplings())
	_, registered := s.Processor(sinkOf(t, root, "sp-sink-1"))
	assert.True(t, registered, "new sink gets a processor")

	// t=2: sink-1 hears the value twice, "out" moves to sink-2
	_, _, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, sinkOf(t, root, "sp-sink-1").Received)
	assert.ElementsMatch(t, []sim.Coupling{
		sim.Couple("sp", "tap-1", "sp-sink-1", "in"),
		sim.Couple("sp", "tap-2", "sp-sink-2", "in"),
		sim.Couple("sp", "out", "sp-sink-2", "in"),
	}, root.Couplings())

	// t=3: sink-1 is removed after receiving on its tap
	sink1 := sinkOf(t, root, "sp-sink-1")
	_, _, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, sink1.Received)
	_, stillThere := root.Submodel("sp-sink-1")
	assert.False(t, stillThere)
	_, registered = s.Processor(sink1)
	assert.False(t, registered, "removed sink loses its processor")
	_, hasTap := spawner.OutPorts().Get("tap-1")
	assert.False(t, hasTap)

	// t=4: last spawn, then passive
	_, _, err = s.Advance()
	require.NoError(t, err)
	_, ok = s.TimeOfNextInternalEvent()
	assert.False(t, ok)

	names := make([]string, 0)
	for _, m := range root.Submodels() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"sp", "sp-sink-3", "sp-sink-4"}, names)
	assert.Equal(t, []string{"sp-sink-3", "sp-sink-4"}, spawner.Live())
	assert.Equal(t, []int{3, 3}, sinkOf(t, root, "sp-sink-3").Received)
	assert.Empty(t, sinkOf(t, root, "sp-sink-4").Received)
	assert.Equal(t, []string{"out", "tap-3", "tap-4"}, portNames(spawner.OutPorts()))
}

func TestSpawner_WithoutParentFails(t *testing.T) {
	sp := NewSpawner("sp", 1, 1, 0)
	err := sp.InternalTransition(1)
	assert.Error(t, err)
}

func portNames(ps *sim.PortSet) []string {
	var names []string
	for _, p := range ps.All() {
		names = append(names, p.Name())
	}
	return names
}
