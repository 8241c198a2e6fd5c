package sensor

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// DefaultKeyPrefix names the per-sensor payload fields: distance1..distanceN.
const DefaultKeyPrefix = "distance"

var (
	// ErrNoData is returned when every coerced reading is exactly zero.
	ErrNoData = errors.New("no sensor data")
	// ErrUnsupportedPayload is returned for payloads that are neither an
	// object nor a list.
	ErrUnsupportedPayload = errors.New("unsupported payload")
)

// Ingestor maps payloads onto a fixed sensor layout.
type Ingestor struct {
	layout Layout
	prefix string
}

// NewIngestor validates the layout and returns an ingestor for it. An empty
// prefix selects DefaultKeyPrefix.
func NewIngestor(layout Layout, prefix string) (*Ingestor, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	l := make(Layout, len(layout))
	copy(l, layout)
	return &Ingestor{layout: l, prefix: prefix}, nil
}

// Layout returns a copy of the configured sensor layout.
func (in *Ingestor) Layout() Layout {
	l := make(Layout, len(in.layout))
	copy(l, in.layout)
	return l
}

// Key returns the payload key for the 1-based sensor index.
func (in *Ingestor) Key(sensor int) string {
	return in.prefix + strconv.Itoa(sensor)
}

// Ingest dispatches on the payload shape. The returned SampleSet is populated
// even when the error is ErrNoData so callers can still report it.
func (in *Ingestor) Ingest(payload any) (SampleSet, error) {
	switch p := payload.(type) {
	case map[string]any:
		return in.IngestMap(p)
	case map[any]any:
		m := make(map[string]any, len(p))
		for k, v := range p {
			m[fmt.Sprint(k)] = v
		}
		return in.IngestMap(m)
	case []any:
		return in.IngestList(p)
	case []float64:
		vals := make([]any, len(p))
		for i, v := range p {
			vals[i] = v
		}
		return in.IngestList(vals)
	default:
		return SampleSet{}, fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
}

// IngestMap reads "<prefix>1".."<prefix>N" from m. Missing keys fall back to
// the default value; unknown keys are reported as ignored.
func (in *Ingestor) IngestMap(m map[string]any) (SampleSet, error) {
	set := SampleSet{
		Points:    make([]SamplePoint, len(in.layout)),
		Coercions: make([]Coercion, len(in.layout)),
	}
	known := make(map[string]bool, len(in.layout))
	for i := range in.layout {
		key := in.Key(i + 1)
		known[key] = true
		c := missing(key)
		if raw, ok := m[key]; ok {
			c = Coerce(key, raw)
		}
		set.Coercions[i] = c
		set.Points[i] = SamplePoint{Sensor: i + 1, Pos: in.layout[i], Value: c.Value}
	}
	for k := range m {
		if !known[k] {
			set.Ignored = append(set.Ignored, k)
		}
	}
	sort.Strings(set.Ignored)
	return set, checkData(set)
}

// IngestList maps values onto sensors in order. Short lists are padded with
// fallbacks and surplus values are reported as ignored.
func (in *Ingestor) IngestList(vals []any) (SampleSet, error) {
	set := SampleSet{
		Points:    make([]SamplePoint, len(in.layout)),
		Coercions: make([]Coercion, len(in.layout)),
	}
	for i := range in.layout {
		key := in.Key(i + 1)
		c := missing(key)
		if i < len(vals) {
			c = Coerce(key, vals[i])
		}
		set.Coercions[i] = c
		set.Points[i] = SamplePoint{Sensor: i + 1, Pos: in.layout[i], Value: c.Value}
	}
	for i := len(in.layout); i < len(vals); i++ {
		set.Ignored = append(set.Ignored, "["+strconv.Itoa(i)+"]")
	}
	return set, checkData(set)
}

func checkData(set SampleSet) error {
	for _, p := range set.Points {
		if p.Value != 0 {
			return nil
		}
	}
	return ErrNoData
}
