// Package testutil provides shared test helpers and fixtures.
package testutil

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/banshee-data/heatgrid/internal/config"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// LocalHostRequest creates a request that appears to come from localhost, so
// tsweb debug routes accept it.
func LocalHostRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

// DistancePayload builds {"distance1": vals[0], ...}.
func DistancePayload(vals ...float64) map[string]any {
	m := make(map[string]any, len(vals))
	for i, v := range vals {
		m["distance"+strconv.Itoa(i+1)] = v
	}
	return m
}

// PresetPath finds config/presets/<name>.json from the test's working
// directory or one of its parents.
func PresetPath(t *testing.T, name string) string {
	t.Helper()
	rel := filepath.Join(config.PresetDir, name+".json")
	for i := 0; i < 4; i++ {
		if _, err := os.Stat(rel); err == nil {
			return rel
		}
		rel = filepath.Join("..", rel)
	}
	t.Fatalf("preset %q not found", name)
	return ""
}

// LoadPreset loads a named preset configuration.
func LoadPreset(t *testing.T, name string) *config.HeatmapConfig {
	t.Helper()
	cfg, err := config.LoadHeatmapConfig(PresetPath(t, name))
	if err != nil {
		t.Fatalf("load preset %q: %v", name, err)
	}
	return cfg
}

// DecodePNG decodes PNG bytes or fails the test.
func DecodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}
