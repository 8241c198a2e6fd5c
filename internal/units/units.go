// Package units provides shared constants and validation for distance units
package units

import "strings"

// Unit constants
const (
	Millimetres = "mm"
	Centimetres = "cm"
	Metres      = "m"
	Inches      = "in"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Millimetres, Centimetres, Metres, Inches}

// centimetresPer holds how many centimetres one of each unit is
var centimetresPer = map[string]float64{
	Millimetres: 0.1,
	Centimetres: 1,
	Metres:      100,
	Inches:      2.54,
}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertDistance converts a distance between units. Unknown units are
// treated as centimetres.
func ConvertDistance(v float64, from, to string) float64 {
	f, ok := centimetresPer[from]
	if !ok {
		f = 1
	}
	t, ok := centimetresPer[to]
	if !ok {
		t = 1
	}
	return v * f / t
}

// Label returns the long name of a unit for display.
func Label(unit string) string {
	switch unit {
	case Millimetres:
		return "millimetres"
	case Centimetres:
		return "centimetres"
	case Metres:
		return "metres"
	case Inches:
		return "inches"
	default:
		return unit
	}
}
