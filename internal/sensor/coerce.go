package sensor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fallback reasons reported on a Coercion.
const (
	ReasonMissing    = "missing"
	ReasonNull       = "null"
	ReasonUnparsable = "unparsable"
	ReasonNonFinite  = "non-finite"
	ReasonType       = "unsupported type"
)

// DefaultValue replaces any reading that cannot be coerced.
const DefaultValue = 0.0

// Coercion records how a single raw reading was converted.
type Coercion struct {
	Key      string
	Value    float64
	Fallback bool
	Reason   string
	Raw      any
}

func (c Coercion) String() string {
	if !c.Fallback {
		return fmt.Sprintf("%s=%g", c.Key, c.Value)
	}
	return fmt.Sprintf("%s=%g (fallback: %s, raw=%v)", c.Key, c.Value, c.Reason, c.Raw)
}

// Coerce converts a raw reading into a finite float. It never fails; the
// returned Coercion reports whether the default value was substituted.
func Coerce(key string, raw any) Coercion {
	c := Coercion{Key: key, Raw: raw}
	v, reason := toFloat(raw)
	if reason == "" && (math.IsNaN(v) || math.IsInf(v, 0)) {
		reason = ReasonNonFinite
	}
	if reason != "" {
		c.Value = DefaultValue
		c.Fallback = true
		c.Reason = reason
		return c
	}
	c.Value = v
	return c
}

func missing(key string) Coercion {
	return Coercion{Key: key, Value: DefaultValue, Fallback: true, Reason: ReasonMissing}
}

func toFloat(raw any) (float64, string) {
	switch v := raw.(type) {
	case nil:
		return 0, ReasonNull
	case float64:
		return v, ""
	case float32:
		return float64(v), ""
	case int:
		return float64(v), ""
	case int8:
		return float64(v), ""
	case int16:
		return float64(v), ""
	case int32:
		return float64(v), ""
	case int64:
		return float64(v), ""
	case uint:
		return float64(v), ""
	case uint8:
		return float64(v), ""
	case uint16:
		return float64(v), ""
	case uint32:
		return float64(v), ""
	case uint64:
		return float64(v), ""
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, ReasonUnparsable
		}
		return f, ""
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, ReasonUnparsable
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, ReasonUnparsable
		}
		return f, ""
	default:
		return 0, ReasonType
	}
}
