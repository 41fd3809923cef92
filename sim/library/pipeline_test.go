package library

import (
	"testing"

	"github.com/devsim/devsim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generator -> queue -> sink, hand-computed:
//
//	t=0   gen emits 0, queue starts serving 0 (done at 1.5)
//	t=1   gen emits 1, queued behind 0
//	t=1.5 queue delivers 0, starts 1 (done at 3)
//	t=2   gen emits 2 and goes passive
//	t=3   queue delivers 1, starts 2 (done at 4.5)
//	t=4.5 queue delivers 2
func TestPipeline_GeneratorQueueSink(t *testing.T) {
	sink := NewSink("sink")
	root := sim.NewCoupled("root").
		MustAdd(
			NewGenerator("gen", GeneratorConfig{Period: 1, Limit: 3}, nil),
			NewQueue("queue", 1.5),
			sink,
		).
		MustConnect(
			sim.Couple("gen", "out", "queue", "in"),
			sim.Couple("queue", "out", "sink", "in"),
		)

	s, err := sim.NewSimulator(root, sim.Config{})
	require.NoError(t, err)
	require.NoError(t, s.Run())

	assert.Equal(t, 6, s.Steps())
	assert.Equal(t, sim.Time(4.5), s.Clock())
	assert.Equal(t, []int{0, 1, 2}, sink.Received)
	assert.Equal(t, []sim.Time{1.5, 3, 4.5}, sink.Arrivals)
	_, ok := s.TimeOfNextInternalEvent()
	assert.False(t, ok, "everything passive at the end")
}

func TestPipeline_HorizonStopsEarly(t *testing.T) {
	sink := NewSink("sink")
	root := sim.NewCoupled("root").
		MustAdd(NewGenerator("gen", GeneratorConfig{Period: 1}, nil), sink).
		MustConnect(sim.Couple("gen", "out", "sink", "in"))

	s, err := sim.NewSimulator(root, sim.Config{Horizon: 3})
	require.NoError(t, err)
	require.NoError(t, s.Run())

	assert.Equal(t, []int{0, 1, 2, 3}, sink.Received, "events at the horizon still run")
	next, ok := s.TimeOfNextInternalEvent()
	assert.True(t, ok)
	assert.Equal(t, sim.Time(4), next)
}

func TestPipeline_EmitsThroughRootOutput(t *testing.T) {
	root := sim.NewCoupled("root").
		MustAdd(NewGenerator("gen", GeneratorConfig{Period: 1, Limit: 2}, nil))
	root.AddOutPort(sim.NewPortOf[int]("out"))
	root.MustConnect(sim.Couple("gen", "out", sim.Self, "out"))

	s, err := sim.NewSimulator(root, sim.Config{})
	require.NoError(t, err)
	require.NoError(t, s.Run())

	outs := s.RootOutputs()
	require.Len(t, outs, 2)
	assert.Equal(t, sim.RootOutput{Time: 0, Port: "out", Values: []any{0}}, outs[0])
	assert.Equal(t, sim.RootOutput{Time: 1, Port: "out", Values: []any{1}}, outs[1])
}
