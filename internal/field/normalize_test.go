package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldOf(vals ...float64) *ScalarField {
	return &ScalarField{W: len(vals), H: 1, Vals: vals}
}

func TestFixedRange(t *testing.T) {
	n, err := NewNormalizer(NormalizeFixed, 60)
	require.NoError(t, err)

	in := fieldOf(-5, 0, 15, 30, 60, 90, math.NaN())
	out := n.Normalize(in)
	assert.Equal(t, []float64{0, 0, 0.25, 0.5, 1, 1, 0}, out.Vals)
	assert.Equal(t, 15.0, in.Vals[2], "input must not be modified")
}

func TestAdaptiveRange(t *testing.T) {
	n, err := NewNormalizer(NormalizeAdaptive, 0)
	require.NoError(t, err)

	out := n.Normalize(fieldOf(10, 20, 30))
	assert.Equal(t, 0.0, out.Vals[0])
	assert.InDelta(t, 0.5, out.Vals[1], 1e-9)
	assert.InDelta(t, 1.0, out.Vals[2], 1e-9)
	assert.LessOrEqual(t, out.Vals[2], 1.0)
}

func TestAdaptiveFlatField(t *testing.T) {
	out := AdaptiveRange{}.Normalize(fieldOf(42, 42, 42, 42))
	for _, v := range out.Vals {
		assert.Equal(t, 0.0, v)
	}
}

func TestAdaptiveIgnoresNonFinite(t *testing.T) {
	out := AdaptiveRange{}.Normalize(fieldOf(math.NaN(), 10, 30, math.Inf(1), 20, math.Inf(-1)))
	assert.Equal(t, 0.0, out.Vals[0])
	assert.Equal(t, 0.0, out.Vals[1])
	assert.InDelta(t, 1.0, out.Vals[2], 1e-9)
	assert.Equal(t, 1.0, out.Vals[3])
	assert.InDelta(t, 0.5, out.Vals[4], 1e-9)
	assert.Equal(t, 0.0, out.Vals[5])

	out = AdaptiveRange{}.Normalize(fieldOf(math.NaN(), math.NaN()))
	assert.Equal(t, []float64{0, 0}, out.Vals)
}

func TestNormalizedBounds(t *testing.T) {
	in := fieldOf(-1e9, -3, 0, 1e-12, 7, 1e12, math.NaN(), math.Inf(1), math.Inf(-1))
	for _, n := range []Normalizer{FixedRange{Max: 140}, AdaptiveRange{}} {
		for _, v := range n.Normalize(in).Vals {
			assert.False(t, math.IsNaN(v))
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestNewNormalizerErrors(t *testing.T) {
	tests := []struct {
		policy string
		max    float64
	}{
		{NormalizeFixed, 0},
		{NormalizeFixed, -10},
		{NormalizeFixed, math.NaN()},
		{NormalizeFixed, math.Inf(1)},
		{"log", 60},
	}
	for _, tt := range tests {
		_, err := NewNormalizer(tt.policy, tt.max)
		assert.Error(t, err, "%s %g", tt.policy, tt.max)
	}

	n, err := NewNormalizer("", 140)
	require.NoError(t, err)
	assert.Equal(t, FixedRange{Max: 140}, n)
}
