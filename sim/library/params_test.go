package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Conversions(t *testing.T) {
	p := Params{"f": 1.5, "i": 3, "whole": 4.0, "s": "x"}

	f, err := p.Float("f", 0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	n, err := p.Int("whole", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = p.Int("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	_, err = p.Int("f", 0)
	assert.Error(t, err, "fractional value is not an int")
	_, err = p.Float("s", 0)
	assert.Error(t, err)
}

func TestNew_Kinds(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(kind, func(t *testing.T) {
			m, err := New(kind, "m", Params{}, nil)
			require.NoError(t, err)
			assert.Equal(t, "m", m.Name())
		})
	}
}

func TestNew_RejectsBadParams(t *testing.T) {
	tests := []struct {
		kind   string
		params Params
	}{
		{"generator", Params{"period": 0}},
		{"queue", Params{"service_time": -1}},
		{"spawner", Params{"max": 0}},
		{"spawner", Params{"period": "fast"}},
		{"mystery", Params{}},
	}
	for _, tt := range tests {
		_, err := New(tt.kind, "m", tt.params, nil)
		assert.Error(t, err, "%s %v", tt.kind, tt.params)
	}
}
