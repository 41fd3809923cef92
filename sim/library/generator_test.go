package library

import (
	"testing"

	"github.com/devsim/devsim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_EmitsSequenceUntilLimit(t *testing.T) {
	g := NewGenerator("g", GeneratorConfig{Period: 2, Start: 1, Limit: 3}, nil)
	assert.Equal(t, sim.Time(1), g.TimeAdvance(), "first emission at start")

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Output(0))
		v, ok := sim.ReadAs[int](mustPort(t, g.OutPorts(), "out"))
		require.True(t, ok)
		assert.Equal(t, i, v)
		require.NoError(t, g.InternalTransition(0))
	}
	assert.Equal(t, 3, g.Emitted())
	assert.True(t, g.TimeAdvance().IsInfinite(), "passive after limit")
}

func TestGenerator_PeriodAfterFirstEmission(t *testing.T) {
	g := NewGenerator("g", GeneratorConfig{Period: 2.5}, nil)
	assert.Equal(t, sim.Time(0), g.TimeAdvance())
	require.NoError(t, g.InternalTransition(0))
	assert.Equal(t, sim.Time(2.5), g.TimeAdvance())
}

func TestGenerator_JitterStaysInBounds(t *testing.T) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(42)).ForStream("g")
	g := NewGenerator("g", GeneratorConfig{Period: 10, Jitter: 0.5}, rng)
	for i := 0; i < 100; i++ {
		require.NoError(t, g.InternalTransition(0))
		ta := g.TimeAdvance()
		assert.GreaterOrEqual(t, float64(ta), 5.0)
		assert.LessOrEqual(t, float64(ta), 15.0)
	}
}

func TestGeneratorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GeneratorConfig
		wantErr bool
	}{
		{"valid", GeneratorConfig{Period: 1}, false},
		{"zero period", GeneratorConfig{}, true},
		{"negative start", GeneratorConfig{Period: 1, Start: -1}, true},
		{"negative limit", GeneratorConfig{Period: 1, Limit: -1}, true},
		{"jitter too large", GeneratorConfig{Period: 1, Jitter: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func mustPort(t *testing.T, ps *sim.PortSet, name string) *sim.Port {
	t.Helper()
	p, ok := ps.Get(name)
	require.True(t, ok, "port %q", name)
	return p
}
