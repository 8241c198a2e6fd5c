package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/banshee-data/heatgrid/internal/field"
	"github.com/banshee-data/heatgrid/internal/fsutil"
	"github.com/banshee-data/heatgrid/internal/render"
	"github.com/banshee-data/heatgrid/internal/security"
	"github.com/banshee-data/heatgrid/internal/sensor"
	"github.com/banshee-data/heatgrid/internal/units"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultConfigPath is the path to the canonical heatmap defaults file.
const DefaultConfigPath = "config/heatgrid.defaults.json"

// PresetDir holds one config file per observed sensor deployment.
const PresetDir = "config/presets"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Maximum grid edge. Larger frames take too long to reconstruct per update.
const maxGridEdge = 4096

// HeatmapConfig is the root configuration. Every field is optional; the Get*
// accessors return defaults for unset fields so partial files are safe.
type HeatmapConfig struct {
	// Output grid
	GridWidth  *int `json:"grid_width,omitempty"`
	GridHeight *int `json:"grid_height,omitempty"`

	// Sensors
	KeyPrefix *string      `json:"key_prefix,omitempty"`
	Layout    [][2]float64 `json:"layout,omitempty"` // normalized (x, y), y=0 is the top edge
	Unit      *string      `json:"unit,omitempty"`

	// Field reconstruction
	Strategy    *string  `json:"strategy,omitempty"`
	ProfileAxis *string  `json:"profile_axis,omitempty"`
	FillValue   *float64 `json:"fill_value,omitempty"`
	RBFKernel   *string  `json:"rbf_kernel,omitempty"`
	Smoothing   *float64 `json:"smoothing,omitempty"`
	Epsilon     *float64 `json:"epsilon,omitempty"`
	Sigma       *float64 `json:"sigma,omitempty"`

	// Normalization
	Normalization *string  `json:"normalization,omitempty"`
	RangeMax      *float64 `json:"range_max,omitempty"`

	// Colour
	ColorMode      *string   `json:"color_mode,omitempty"`
	Colormap       *string   `json:"colormap,omitempty"`
	BandBoundaries []float64 `json:"band_boundaries,omitempty"`
	BandColors     []string  `json:"band_colors,omitempty"`

	// Contour overlay (physical units)
	ContourLevels   []float64 `json:"contour_levels,omitempty"`
	ContourInterval *float64  `json:"contour_interval,omitempty"`
	ContourColor    *string   `json:"contour_color,omitempty"`
	ContourLabels   *bool     `json:"contour_labels,omitempty"`

	// Serial sensor board
	Serial *SerialConfig `json:"serial,omitempty"`
}

// SerialConfig describes the sensor board connection.
type SerialConfig struct {
	Port         *string  `json:"port,omitempty"`
	BaudRate     *int     `json:"baud_rate,omitempty"`
	DataBits     *int     `json:"data_bits,omitempty"`
	StopBits     *int     `json:"stop_bits,omitempty"`
	Parity       *string  `json:"parity,omitempty"`
	InitCommands []string `json:"init_commands,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

var (
	defaultLayout         = [][2]float64{{0.25, 0.3}, {0.5, 0.7}, {0.75, 0.4}}
	defaultBandBoundaries = []float64{0, 0.25, 0.5, 0.75, 1}
	defaultBandColors     = []string{"#d7191c", "#fdae61", "#a6d96a", "#1a9641"}
)

// EmptyHeatmapConfig returns a HeatmapConfig with all fields unset.
func EmptyHeatmapConfig() *HeatmapConfig {
	return &HeatmapConfig{}
}

// DefaultHeatmapConfig returns a config with every field set to its default.
// It matches config/heatgrid.defaults.json.
func DefaultHeatmapConfig() *HeatmapConfig {
	return &HeatmapConfig{
		GridWidth:       ptrInt(300),
		GridHeight:      ptrInt(200),
		KeyPrefix:       ptrString(sensor.DefaultKeyPrefix),
		Layout:          append([][2]float64(nil), defaultLayout...),
		Unit:            ptrString(units.Centimetres),
		Strategy:        ptrString(field.DefaultStrategy),
		ProfileAxis:     ptrString("x"),
		FillValue:       ptrFloat64(0),
		RBFKernel:       ptrString(field.DefaultKernel),
		Smoothing:       ptrFloat64(0),
		Epsilon:         ptrFloat64(field.DefaultEpsilon),
		Sigma:           ptrFloat64(field.DefaultSigma),
		Normalization:   ptrString(field.NormalizeFixed),
		RangeMax:        ptrFloat64(60),
		ColorMode:       ptrString(render.ModeContinuous),
		Colormap:        ptrString(render.DefaultColorMap),
		BandBoundaries:  append([]float64(nil), defaultBandBoundaries...),
		BandColors:      append([]string(nil), defaultBandColors...),
		ContourInterval: ptrFloat64(0),
		ContourColor:    ptrString("#ffffff"),
		ContourLabels:   ptrBool(true),
		Serial: &SerialConfig{
			Port:     ptrString("/dev/ttyUSB0"),
			BaudRate: ptrInt(115200),
			DataBits: ptrInt(8),
			StopBits: ptrInt(1),
			Parity:   ptrString("N"),
		},
	}
}

// LoadHeatmapConfig loads a HeatmapConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadHeatmapConfig(path string) (*HeatmapConfig, error) {
	return LoadHeatmapConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadHeatmapConfigFS is LoadHeatmapConfig reading through fsys.
func LoadHeatmapConfigFS(fsys fsutil.FileSystem, path string) (*HeatmapConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyHeatmapConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPreset loads <dir>/<name>.json. Names that resolve outside dir are
// rejected.
func LoadPreset(dir, name string) (*HeatmapConfig, error) {
	path, err := security.JoinWithin(dir, name, ".json")
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return LoadHeatmapConfig(path)
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *HeatmapConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadHeatmapConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks that the configuration can build a working pipeline.
func (c *HeatmapConfig) Validate() error {
	if err := c.GetGrid().Validate(); err != nil {
		return invalid("%v", err)
	}
	if g := c.GetGrid(); g.W > maxGridEdge || g.H > maxGridEdge {
		return invalid("grid %dx%d exceeds %d", g.W, g.H, maxGridEdge)
	}
	if err := c.GetLayout().Validate(); err != nil {
		return invalid("%v", err)
	}
	if !units.IsValid(c.GetUnit()) {
		return invalid("unit %q must be one of %s", c.GetUnit(), units.GetValidUnitsString())
	}
	if _, err := field.New(c.GetStrategy(), c.GetFieldOptions()); err != nil {
		return invalid("%v", err)
	}
	if _, err := field.NewNormalizer(c.GetNormalization(), c.GetRangeMax()); err != nil {
		return invalid("%v", err)
	}

	switch c.GetColorMode() {
	case render.ModeContinuous:
		if _, err := render.LookupColorMap(c.GetColormap()); err != nil {
			return invalid("%v", err)
		}
	case render.ModeBanded:
		colors, err := c.GetBandColors()
		if err != nil {
			return invalid("%v", err)
		}
		if _, err := render.NewBanded(c.GetBandBoundaries(), colors); err != nil {
			return invalid("%v", err)
		}
	default:
		return invalid("color_mode must be %q or %q, got %q", render.ModeContinuous, render.ModeBanded, c.GetColorMode())
	}

	if c.GetContourInterval() < 0 {
		return invalid("contour_interval must be >= 0, got %g", c.GetContourInterval())
	}
	if _, err := c.GetContourColor(); err != nil {
		return invalid("%v", err)
	}
	if c.Serial != nil && c.Serial.BaudRate != nil && *c.Serial.BaudRate <= 0 {
		return invalid("serial baud_rate must be positive, got %d", *c.Serial.BaudRate)
	}
	return nil
}

// GetGrid returns the output grid, default 300x200.
func (c *HeatmapConfig) GetGrid() field.Grid {
	g := field.Grid{W: 300, H: 200}
	if c.GridWidth != nil {
		g.W = *c.GridWidth
	}
	if c.GridHeight != nil {
		g.H = *c.GridHeight
	}
	return g
}

// GetKeyPrefix returns the payload key prefix or the default.
func (c *HeatmapConfig) GetKeyPrefix() string {
	if c.KeyPrefix == nil || *c.KeyPrefix == "" {
		return sensor.DefaultKeyPrefix
	}
	return *c.KeyPrefix
}

// GetLayout returns the sensor layout or the default three-sensor triangle.
func (c *HeatmapConfig) GetLayout() sensor.Layout {
	pts := c.Layout
	if len(pts) == 0 {
		pts = defaultLayout
	}
	l := make(sensor.Layout, len(pts))
	for i, p := range pts {
		l[i] = r2.Vec{X: p[0], Y: p[1]}
	}
	return l
}

// GetUnit returns the distance unit or the default.
func (c *HeatmapConfig) GetUnit() string {
	if c.Unit == nil {
		return units.Centimetres
	}
	return *c.Unit
}

// GetStrategy returns the reconstruction strategy name or the default.
func (c *HeatmapConfig) GetStrategy() string {
	if c.Strategy == nil || *c.Strategy == "" {
		return field.DefaultStrategy
	}
	return *c.Strategy
}

// GetFieldOptions collects the strategy parameters.
func (c *HeatmapConfig) GetFieldOptions() field.Options {
	o := field.Options{
		Axis:    "x",
		Kernel:  field.DefaultKernel,
		Epsilon: field.DefaultEpsilon,
		Sigma:   field.DefaultSigma,
	}
	if c.ProfileAxis != nil {
		o.Axis = *c.ProfileAxis
	}
	if c.FillValue != nil {
		o.FillValue = *c.FillValue
	}
	if c.RBFKernel != nil {
		o.Kernel = *c.RBFKernel
	}
	if c.Smoothing != nil {
		o.Smoothing = *c.Smoothing
	}
	if c.Epsilon != nil {
		o.Epsilon = *c.Epsilon
	}
	if c.Sigma != nil {
		o.Sigma = *c.Sigma
	}
	return o
}

// GetNormalization returns the normalization policy or the default.
func (c *HeatmapConfig) GetNormalization() string {
	if c.Normalization == nil || *c.Normalization == "" {
		return field.NormalizeFixed
	}
	return *c.Normalization
}

// GetRangeMax returns the fixed normalization range or the default.
func (c *HeatmapConfig) GetRangeMax() float64 {
	if c.RangeMax == nil {
		return 60 // default
	}
	return *c.RangeMax
}

// GetColorMode returns the colour mode or the default.
func (c *HeatmapConfig) GetColorMode() string {
	if c.ColorMode == nil || *c.ColorMode == "" {
		return render.ModeContinuous
	}
	return *c.ColorMode
}

// GetColormap returns the continuous colour map name or the default.
func (c *HeatmapConfig) GetColormap() string {
	if c.Colormap == nil || *c.Colormap == "" {
		return render.DefaultColorMap
	}
	return *c.Colormap
}

// GetBandBoundaries returns the band boundaries or the default quartiles.
func (c *HeatmapConfig) GetBandBoundaries() []float64 {
	if len(c.BandBoundaries) == 0 {
		return append([]float64(nil), defaultBandBoundaries...)
	}
	return c.BandBoundaries
}

// GetBandColors parses the band colours, defaulting to a red-to-green scale.
func (c *HeatmapConfig) GetBandColors() ([]color.RGBA, error) {
	hex := c.BandColors
	if len(hex) == 0 {
		hex = defaultBandColors
	}
	out := make([]color.RGBA, len(hex))
	for i, h := range hex {
		col, err := render.ParseHexColor(h)
		if err != nil {
			return nil, fmt.Errorf("band_colors[%d]: %w", i, err)
		}
		out[i] = col
	}
	return out, nil
}

// GetContourLevels returns the explicit contour levels, if any.
func (c *HeatmapConfig) GetContourLevels() []float64 {
	return c.ContourLevels
}

// GetContourInterval returns the contour spacing, 0 when disabled.
func (c *HeatmapConfig) GetContourInterval() float64 {
	if c.ContourInterval == nil {
		return 0
	}
	return *c.ContourInterval
}

// GetContourColor parses the contour line colour, default white.
func (c *HeatmapConfig) GetContourColor() (color.RGBA, error) {
	if c.ContourColor == nil || *c.ContourColor == "" {
		return color.RGBA{255, 255, 255, 255}, nil
	}
	return render.ParseHexColor(*c.ContourColor)
}

// GetContourLabels reports whether contour lines are labelled.
func (c *HeatmapConfig) GetContourLabels() bool {
	if c.ContourLabels == nil {
		return true
	}
	return *c.ContourLabels
}

// ContoursEnabled reports whether any contour overlay is configured.
func (c *HeatmapConfig) ContoursEnabled() bool {
	return len(c.ContourLevels) > 0 || c.GetContourInterval() > 0
}

// GetSerialPort returns the serial device path or the default.
func (c *HeatmapConfig) GetSerialPort() string {
	if c.Serial == nil || c.Serial.Port == nil || *c.Serial.Port == "" {
		return "/dev/ttyUSB0"
	}
	return *c.Serial.Port
}

// GetSerialInitCommands returns the commands written to the board at start-up.
func (c *HeatmapConfig) GetSerialInitCommands() []string {
	if c.Serial == nil {
		return nil
	}
	return c.Serial.InitCommands
}

// GetSerialBaudRate returns the baud rate or the default.
func (c *HeatmapConfig) GetSerialBaudRate() int {
	if c.Serial == nil || c.Serial.BaudRate == nil {
		return 115200
	}
	return *c.Serial.BaudRate
}

// GetSerialDataBits returns the data bits or the default of 8.
func (c *HeatmapConfig) GetSerialDataBits() int {
	if c.Serial == nil || c.Serial.DataBits == nil {
		return 8
	}
	return *c.Serial.DataBits
}

// GetSerialStopBits returns the stop bits or the default of 1.
func (c *HeatmapConfig) GetSerialStopBits() int {
	if c.Serial == nil || c.Serial.StopBits == nil {
		return 1
	}
	return *c.Serial.StopBits
}

// GetSerialParity returns the parity or the default "N".
func (c *HeatmapConfig) GetSerialParity() string {
	if c.Serial == nil || c.Serial.Parity == nil || *c.Serial.Parity == "" {
		return "N"
	}
	return *c.Serial.Parity
}

// SetSerialPort overrides the serial device path.
func (c *HeatmapConfig) SetSerialPort(path string) {
	if c.Serial == nil {
		c.Serial = &SerialConfig{}
	}
	c.Serial.Port = ptrString(path)
}
