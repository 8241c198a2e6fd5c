package sensor

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func newTestIngestor(t *testing.T) *Ingestor {
	t.Helper()
	in, err := NewIngestor(LineLayout(3), "")
	require.NoError(t, err)
	return in
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		want     float64
		fallback bool
		reason   string
	}{
		{"float", 12.5, 12.5, false, ""},
		{"int", 7, 7, false, ""},
		{"uint64 from cbor", uint64(40), 40, false, ""},
		{"float32", float32(1.5), 1.5, false, ""},
		{"json number", json.Number("33.25"), 33.25, false, ""},
		{"numeric string", " 18.75 ", 18.75, false, ""},
		{"negative string", "-4", -4, false, ""},
		{"nil", nil, 0, true, ReasonNull},
		{"empty string", "", 0, true, ReasonUnparsable},
		{"word", "far", 0, true, ReasonUnparsable},
		{"bad json number", json.Number("x"), 0, true, ReasonUnparsable},
		{"nan", math.NaN(), 0, true, ReasonNonFinite},
		{"inf string", "Inf", 0, true, ReasonNonFinite},
		{"bool", true, 0, true, ReasonType},
		{"object", map[string]any{"a": 1}, 0, true, ReasonType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Coerce("distance1", tt.raw)
			assert.Equal(t, tt.want, c.Value)
			assert.Equal(t, tt.fallback, c.Fallback)
			assert.Equal(t, tt.reason, c.Reason)
			assert.False(t, math.IsNaN(c.Value) || math.IsInf(c.Value, 0))
		})
	}
}

func TestIngestMap(t *testing.T) {
	in := newTestIngestor(t)

	set, err := in.Ingest(map[string]any{
		"distance1": 10.0,
		"distance2": "20",
		"distance3": nil,
		"extra":     1,
	})
	require.NoError(t, err)

	if diff := cmp.Diff([]float64{10, 20, 0}, set.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"extra"}, set.Ignored)
	require.Len(t, set.Degraded(), 1)
	assert.Equal(t, "distance3", set.Degraded()[0].Key)
	assert.Equal(t, ReasonNull, set.Degraded()[0].Reason)

	// positions come from the layout, in sensor order
	assert.Equal(t, r2.Vec{X: 0, Y: 0.5}, set.Points[0].Pos)
	assert.Equal(t, r2.Vec{X: 1, Y: 0.5}, set.Points[2].Pos)
	assert.Equal(t, 3, set.Points[2].Sensor)
}

func TestIngestMissingKeysFallBack(t *testing.T) {
	in := newTestIngestor(t)
	set, err := in.Ingest(map[string]any{"distance2": 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 5, 0}, set.Values())
	assert.Len(t, set.Degraded(), 2)
	assert.Equal(t, ReasonMissing, set.Coercions[0].Reason)
}

func TestIngestAnyKeyedMap(t *testing.T) {
	in := newTestIngestor(t)
	set, err := in.Ingest(map[any]any{"distance1": uint64(1), "distance2": int64(2), "distance3": float32(3)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, set.Values())
}

func TestIngestList(t *testing.T) {
	in := newTestIngestor(t)

	t.Run("exact", func(t *testing.T) {
		set, err := in.Ingest([]any{1.0, 2.0, 3.0})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, set.Values())
		assert.Empty(t, set.Degraded())
	})

	t.Run("short list padded", func(t *testing.T) {
		set, err := in.Ingest([]any{4.0})
		require.NoError(t, err)
		assert.Equal(t, []float64{4, 0, 0}, set.Values())
		assert.Len(t, set.Degraded(), 2)
	})

	t.Run("long list truncated", func(t *testing.T) {
		set, err := in.Ingest([]float64{1, 2, 3, 4, 5})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, set.Values())
		assert.Equal(t, []string{"[3]", "[4]"}, set.Ignored)
	})
}

func TestIngestNoData(t *testing.T) {
	in := newTestIngestor(t)

	tests := []struct {
		name    string
		payload any
	}{
		{"all zero", map[string]any{"distance1": 0, "distance2": 0.0, "distance3": "0"}},
		{"all missing", map[string]any{}},
		{"all garbage", []any{"x", nil, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := in.Ingest(tt.payload)
			if !errors.Is(err, ErrNoData) {
				t.Fatalf("expected ErrNoData, got %v", err)
			}
			assert.Equal(t, 3, set.Len())
		})
	}
}

func TestIngestUnsupportedPayload(t *testing.T) {
	in := newTestIngestor(t)
	_, err := in.Ingest("12,13,14")
	assert.ErrorIs(t, err, ErrUnsupportedPayload)
}

func TestCustomPrefix(t *testing.T) {
	in, err := NewIngestor(LatticeLayout(3, 3), "d")
	require.NoError(t, err)
	assert.Equal(t, "d9", in.Key(9))

	set, err := in.Ingest(map[string]any{"d1": 1, "d9": 9})
	require.NoError(t, err)
	assert.Equal(t, 9.0, set.Points[8].Value)
	assert.Equal(t, r2.Vec{X: 1, Y: 1}, set.Points[8].Pos)
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr bool
	}{
		{"line", LineLayout(3), false},
		{"lattice", LatticeLayout(2, 4), false},
		{"too few", LineLayout(2), true},
		{"outside", Layout{{X: 0, Y: 0}, {X: 1.5, Y: 0}, {X: 0, Y: 1}}, true},
		{"duplicate", Layout{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLayout)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := NewIngestor(LineLayout(1), "")
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestParseLine(t *testing.T) {
	in := newTestIngestor(t)

	tests := []struct {
		line string
		want []float64
	}{
		{`{"distance1": 12.5, "distance2": 30, "distance3": 41}`, []float64{12.5, 30, 41}},
		{`[12.5, 30, 41]`, []float64{12.5, 30, 41}},
		{"12.5, 30 ,41\r\n", []float64{12.5, 30, 41}},
	}
	for _, tt := range tests {
		payload, err := ParseLine(tt.line)
		require.NoError(t, err, tt.line)
		set, err := in.Ingest(payload)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, set.Values(), tt.line)
	}

	_, err := ParseLine("   ")
	assert.ErrorIs(t, err, ErrEmptyLine)

	_, err = ParseLine(`{"distance1": `)
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"distance1": 1}`))
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, v)

	v, err = DecodeJSON([]byte(`[1,2,3]`))
	require.NoError(t, err)
	assert.IsType(t, []any{}, v)

	_, err = DecodeJSON([]byte(`{} {}`))
	assert.Error(t, err)

	_, err = DecodeJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeCBOR(t *testing.T) {
	in := newTestIngestor(t)

	data, err := cbor.Marshal(map[string]any{"distance1": 10, "distance2": 20.5, "distance3": "30"})
	require.NoError(t, err)
	v, err := DecodeCBOR(data)
	require.NoError(t, err)
	require.IsType(t, map[string]any{}, v)
	set, err := in.Ingest(v)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20.5, 30}, set.Values())

	data, err = cbor.Marshal([]any{-1, 2, 3})
	require.NoError(t, err)
	v, err = DecodeCBOR(data)
	require.NoError(t, err)
	set, err = in.Ingest(v)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 2, 3}, set.Values())

	_, err = DecodeCBOR([]byte{0xff, 0x00})
	assert.Error(t, err)
}
