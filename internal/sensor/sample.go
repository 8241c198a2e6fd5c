// Package sensor turns raw distance-sensor payloads into validated sample sets.
//
// A payload is either a JSON-like object keyed "<prefix>1".."<prefix>N" or an
// ordered list of readings. Every value is coerced to a finite float; values
// that cannot be coerced fall back to 0 and are reported so callers can log
// degraded input without rejecting the frame.
package sensor

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// SamplePoint is one sensor reading at its normalized position.
type SamplePoint struct {
	Sensor int    // 1-based sensor index
	Pos    r2.Vec // normalized [0,1] x [0,1], y=0 is the top edge
	Value  float64
}

// SampleSet is the ordered collection of points produced from one payload.
type SampleSet struct {
	Points    []SamplePoint
	Coercions []Coercion // one entry per sensor, parallel to Points
	Ignored   []string   // payload keys not matching any configured sensor
}

// Len returns the number of sample points.
func (s SampleSet) Len() int { return len(s.Points) }

// Values returns the sample values in sensor order.
func (s SampleSet) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Positions returns the sample positions in sensor order.
func (s SampleSet) Positions() []r2.Vec {
	out := make([]r2.Vec, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Pos
	}
	return out
}

// Degraded returns the coercions that fell back to the default value.
func (s SampleSet) Degraded() []Coercion {
	var out []Coercion
	for _, c := range s.Coercions {
		if c.Fallback {
			out = append(out, c)
		}
	}
	return out
}

// Summary renders a short human readable description for logs.
func (s SampleSet) Summary() string {
	return fmt.Sprintf("%d samples, %d degraded, %d ignored keys", len(s.Points), len(s.Degraded()), len(s.Ignored))
}
