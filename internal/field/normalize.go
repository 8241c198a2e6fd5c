package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Normalization policies.
const (
	NormalizeFixed    = "fixed"
	NormalizeAdaptive = "adaptive"

	// AdaptiveEpsilon keeps a flat field from dividing by zero.
	AdaptiveEpsilon = 1e-9
)

// Normalizer maps a raw field into [0,1]. Implementations return a new
// field and leave the input untouched.
type Normalizer interface {
	Normalize(f *ScalarField) *ScalarField
}

// FixedRange divides by a configured maximum: clamp(v / Max, 0, 1).
type FixedRange struct {
	Max float64
}

func (n FixedRange) Normalize(f *ScalarField) *ScalarField {
	out := f.Clone()
	for i, v := range out.Vals {
		out.Vals[i] = clamp01(v / n.Max)
	}
	return out
}

// AdaptiveRange stretches the field's own min..max onto [0,1]. The range is
// taken over finite values; infinities clamp to the ends and NaN maps to 0.
type AdaptiveRange struct{}

func (AdaptiveRange) Normalize(f *ScalarField) *ScalarField {
	out := f.Clone()
	finite := make([]float64, 0, len(f.Vals))
	for _, v := range f.Vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		for i := range out.Vals {
			out.Vals[i] = 0
		}
		return out
	}
	lo, hi := floats.Min(finite), floats.Max(finite)
	span := hi - lo + AdaptiveEpsilon
	for i, v := range out.Vals {
		out.Vals[i] = clamp01((v - lo) / span)
	}
	return out
}

// NewNormalizer returns the named policy. rangeMax is only used by the fixed
// policy and must be positive there.
func NewNormalizer(policy string, rangeMax float64) (Normalizer, error) {
	switch policy {
	case "", NormalizeFixed:
		if !(rangeMax > 0) || math.IsInf(rangeMax, 0) {
			return nil, fmt.Errorf("fixed normalization needs a positive finite range, got %g", rangeMax)
		}
		return FixedRange{Max: rangeMax}, nil
	case NormalizeAdaptive:
		return AdaptiveRange{}, nil
	}
	return nil, fmt.Errorf("unknown normalization %q", policy)
}

// clamp01 clamps v to [0,1], mapping NaN to 0.
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return 1
	}
	return v
}
