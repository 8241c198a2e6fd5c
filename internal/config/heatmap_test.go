package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/heatgrid/internal/field"
	"github.com/banshee-data/heatgrid/internal/fsutil"
	"github.com/banshee-data/heatgrid/internal/render"
	"github.com/banshee-data/heatgrid/internal/security"
	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r2"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultHeatmapConfig(t *testing.T) {
	cfg := DefaultHeatmapConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	if g := cfg.GetGrid(); g != (field.Grid{W: 300, H: 200}) {
		t.Errorf("GetGrid() = %+v, want 300x200", g)
	}
	if cfg.GetStrategy() != field.StrategyRBF {
		t.Errorf("GetStrategy() = %q, want rbf", cfg.GetStrategy())
	}
	if cfg.GetRangeMax() != 60 {
		t.Errorf("GetRangeMax() = %g, want 60", cfg.GetRangeMax())
	}
	if cfg.GetColormap() != "plasma" {
		t.Errorf("GetColormap() = %q, want plasma", cfg.GetColormap())
	}
	if cfg.ContoursEnabled() {
		t.Error("contours should be disabled by default")
	}
}

func TestEmptyConfigMatchesDefaults(t *testing.T) {
	empty := EmptyHeatmapConfig()
	def := DefaultHeatmapConfig()

	if diff := cmp.Diff(def.GetGrid(), empty.GetGrid()); diff != "" {
		t.Errorf("grid mismatch (-default +empty):\n%s", diff)
	}
	if diff := cmp.Diff(def.GetLayout(), empty.GetLayout()); diff != "" {
		t.Errorf("layout mismatch (-default +empty):\n%s", diff)
	}
	if diff := cmp.Diff(def.GetFieldOptions(), empty.GetFieldOptions()); diff != "" {
		t.Errorf("field options mismatch (-default +empty):\n%s", diff)
	}
	if def.GetNormalization() != empty.GetNormalization() || def.GetRangeMax() != empty.GetRangeMax() {
		t.Error("normalization defaults differ")
	}
	serial := func(c *HeatmapConfig) []any {
		return []any{c.GetSerialPort(), c.GetSerialBaudRate(), c.GetSerialDataBits(), c.GetSerialStopBits(), c.GetSerialParity()}
	}
	if diff := cmp.Diff(serial(def), serial(empty)); diff != "" {
		t.Errorf("serial defaults mismatch (-default +empty):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"/dev/ttyUSB0", 115200, 8, 1, "N"}, serial(empty)); diff != "" {
		t.Errorf("unexpected serial defaults (-want +got):\n%s", diff)
	}
	defColour, _ := def.GetContourColor()
	emptyColour, _ := empty.GetContourColor()
	if defColour != emptyColour {
		t.Errorf("contour colour %v != %v", defColour, emptyColour)
	}
	if err := empty.Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	def := DefaultHeatmapConfig()
	if diff := cmp.Diff(def, cfg); diff != "" {
		t.Errorf("%s does not match DefaultHeatmapConfig (-code +file):\n%s", DefaultConfigPath, diff)
	}
}

func TestLoadPresets(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", PresetDir, "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no presets found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			if _, err := LoadHeatmapConfig(path); err != nil {
				t.Errorf("preset %s: %v", path, err)
			}
		})
	}
}

func TestLinear3Preset(t *testing.T) {
	cfg, err := LoadHeatmapConfig(filepath.Join("..", "..", PresetDir, "linear3.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetStrategy() != field.StrategyProfile {
		t.Errorf("strategy = %q, want profile", cfg.GetStrategy())
	}
	if g := cfg.GetGrid(); g.W != 300 {
		t.Errorf("grid width = %d, want 300", g.W)
	}
	want := []r2.Vec{{X: 0, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 1, Y: 0.5}}
	if diff := cmp.Diff(want, []r2.Vec(cfg.GetLayout())); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadHeatmapConfigPartial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"strategy": "gaussian", "sigma": 0.2, "colormap": "magma"}`)
	cfg, err := LoadHeatmapConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetStrategy() != field.StrategyGaussian {
		t.Errorf("strategy = %q", cfg.GetStrategy())
	}
	if cfg.GetFieldOptions().Sigma != 0.2 {
		t.Errorf("sigma = %g", cfg.GetFieldOptions().Sigma)
	}
	// unset fields fall back to defaults
	if cfg.GetRangeMax() != 60 {
		t.Errorf("range_max = %g, want default 60", cfg.GetRangeMax())
	}
	if len(cfg.GetLayout()) != 3 {
		t.Errorf("layout has %d sensors, want default 3", len(cfg.GetLayout()))
	}
}

func TestLoadHeatmapConfigErrors(t *testing.T) {
	if _, err := LoadHeatmapConfig("/nonexistent/path/to/config.json"); err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
	if _, err := LoadHeatmapConfig("/some/path/config.yaml"); err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}

	bad := writeConfig(t, "invalid.json", `{"range_max": "far"`)
	if _, err := LoadHeatmapConfig(bad); err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}

	large := filepath.Join(t.TempDir(), "large.json")
	if err := os.WriteFile(large, make([]byte, 2*1024*1024), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHeatmapConfig(large); err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"grid too small", `{"grid_width": 1}`},
		{"grid too large", `{"grid_height": 10000}`},
		{"too few sensors", `{"layout": [[0, 0], [1, 1]]}`},
		{"sensor outside", `{"layout": [[0, 0], [1, 1], [0.5, 1.5]]}`},
		{"unknown unit", `{"unit": "ft"}`},
		{"unknown strategy", `{"strategy": "kriging"}`},
		{"unknown kernel", `{"rbf_kernel": "sinc"}`},
		{"negative smoothing", `{"smoothing": -1}`},
		{"bad axis", `{"strategy": "profile", "profile_axis": "z"}`},
		{"zero range", `{"range_max": 0}`},
		{"unknown normalization", `{"normalization": "log"}`},
		{"unknown colormap", `{"colormap": "rainbow"}`},
		{"unknown mode", `{"color_mode": "dithered"}`},
		{"band colour count", `{"color_mode": "banded", "band_boundaries": [0, 0.5, 1], "band_colors": ["#000000"]}`},
		{"band order", `{"color_mode": "banded", "band_boundaries": [0, 0.7, 0.5], "band_colors": ["#000000", "#ffffff"]}`},
		{"band colour", `{"color_mode": "banded", "band_boundaries": [0, 1], "band_colors": ["blue"]}`},
		{"negative interval", `{"contour_interval": -5}`},
		{"contour colour", `{"contour_color": "#12"}`},
		{"baud rate", `{"serial": {"baud_rate": -1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadHeatmapConfig(writeConfig(t, "c.json", tt.json))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBandedConfig(t *testing.T) {
	path := writeConfig(t, "banded.json", `{
  "color_mode": "banded",
  "band_boundaries": [0, 0.5, 1],
  "band_colors": ["#ff0000", "#0000ff"]
}`)
	cfg, err := LoadHeatmapConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	colors, err := cfg.GetBandColors()
	if err != nil {
		t.Fatal(err)
	}
	if len(colors) != 2 || render.HexColor(colors[1]) != "#0000ff" {
		t.Errorf("unexpected band colours %v", colors)
	}
}

func TestContourSettings(t *testing.T) {
	cfg := EmptyHeatmapConfig()
	if cfg.ContoursEnabled() {
		t.Error("no contours expected")
	}
	cfg.ContourLevels = []float64{10, 20}
	if !cfg.ContoursEnabled() {
		t.Error("levels should enable contours")
	}
	cfg = EmptyHeatmapConfig()
	cfg.ContourInterval = ptrFloat64(15)
	if !cfg.ContoursEnabled() || cfg.GetContourInterval() != 15 {
		t.Error("interval should enable contours")
	}
	if !cfg.GetContourLabels() {
		t.Error("labels default to on")
	}
}

func TestSerialSettings(t *testing.T) {
	cfg := EmptyHeatmapConfig()
	if cfg.GetSerialPort() != "/dev/ttyUSB0" {
		t.Errorf("default port = %q", cfg.GetSerialPort())
	}
	if cfg.GetSerialInitCommands() != nil {
		t.Error("no init commands expected")
	}
	cfg.SetSerialPort("/dev/ttyACM0")
	if cfg.GetSerialPort() != "/dev/ttyACM0" {
		t.Errorf("port = %q", cfg.GetSerialPort())
	}

	path := writeConfig(t, "serial.json", `{"serial": {"baud_rate": 9600, "parity": "E", "init_commands": ["RATE 5"]}}`)
	cfg, err := LoadHeatmapConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetSerialBaudRate() != 9600 || cfg.GetSerialParity() != "E" {
		t.Errorf("serial = %d %q", cfg.GetSerialBaudRate(), cfg.GetSerialParity())
	}
	if diff := cmp.Diff([]string{"RATE 5"}, cfg.GetSerialInitCommands()); diff != "" {
		t.Errorf("init commands (-want +got):\n%s", diff)
	}
}

func TestLoadHeatmapConfigFS(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.AddFile("presets/block.json", []byte(`{"strategy": "block", "layout": [[0, 0], [1, 0], [0, 1], [1, 1]]}`))

	cfg, err := LoadHeatmapConfigFS(mfs, "presets/block.json")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetStrategy() != field.StrategyBlock || len(cfg.GetLayout()) != 4 {
		t.Errorf("unexpected config: %s with %d sensors", cfg.GetStrategy(), len(cfg.GetLayout()))
	}

	if _, err := LoadHeatmapConfigFS(mfs, "presets/missing.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadPreset(t *testing.T) {
	dir := filepath.Join("..", "..", PresetDir)
	cfg, err := LoadPreset(dir, "banded9")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetColorMode() != render.ModeBanded || len(cfg.GetLayout()) != 9 {
		t.Errorf("unexpected preset: %s with %d sensors", cfg.GetColorMode(), len(cfg.GetLayout()))
	}

	if _, err := LoadPreset(dir, "../heatgrid.defaults"); !errors.Is(err, security.ErrPathEscape) {
		t.Errorf("expected ErrPathEscape, got %v", err)
	}
	if _, err := LoadPreset(dir, "nope"); err == nil {
		t.Error("expected an error for an unknown preset")
	}
}
