// Package pipeline wires ingestion, reconstruction, normalization,
// colouring and encoding into a single run that publishes one frame.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/heatgrid/internal/config"
	"github.com/banshee-data/heatgrid/internal/field"
	"github.com/banshee-data/heatgrid/internal/frame"
	"github.com/banshee-data/heatgrid/internal/monitoring"
	"github.com/banshee-data/heatgrid/internal/render"
	"github.com/banshee-data/heatgrid/internal/sensor"
	"github.com/banshee-data/heatgrid/internal/timeutil"
)

// Status is the outcome of one run.
type Status string

const (
	Published Status = "published"
	NoData    Status = "no-data"
	Failed    Status = "failed"
)

// Result describes one run. Image is set only when Status is Published;
// Message and Err only when it is Failed or NoData.
type Result struct {
	Status   Status
	Image    *frame.Image
	Samples  sensor.SampleSet
	Message  string
	Err      error
	Duration time.Duration
}

// Stages holds the configured stage implementations. Overlay is optional.
type Stages struct {
	Ingestor      *sensor.Ingestor
	Grid          field.Grid
	Reconstructor field.Reconstructor
	Normalizer    field.Normalizer
	Colorizer     render.Colorizer
	Overlay       *render.ContourOverlay
}

// Pipeline turns payloads into frames and publishes them to a store.
// Run may be called concurrently; the last completed publish wins.
type Pipeline struct {
	stages  Stages
	encoder *render.Encoder
	store   *frame.Store
	clock   timeutil.Clock
	stats   *monitoring.PipelineStats

	lastMu      sync.RWMutex
	lastSamples *sensor.SampleSet
}

// New returns a pipeline publishing to store. A nil clock uses the wall clock.
func New(stages Stages, store *frame.Store, clock timeutil.Clock) (*Pipeline, error) {
	switch {
	case stages.Ingestor == nil:
		return nil, errors.New("pipeline: ingestor is required")
	case stages.Reconstructor == nil:
		return nil, errors.New("pipeline: reconstructor is required")
	case stages.Normalizer == nil:
		return nil, errors.New("pipeline: normalizer is required")
	case stages.Colorizer == nil:
		return nil, errors.New("pipeline: colorizer is required")
	case store == nil:
		return nil, errors.New("pipeline: frame store is required")
	}
	if err := stages.Grid.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Pipeline{
		stages:  stages,
		encoder: render.NewEncoder(),
		store:   store,
		clock:   clock,
		stats:   &monitoring.PipelineStats{},
	}, nil
}

// FromConfig builds every stage from cfg.
func FromConfig(cfg *config.HeatmapConfig, store *frame.Store, clock timeutil.Clock) (*Pipeline, error) {
	stages, err := StagesFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(stages, store, clock)
}

// StagesFromConfig resolves the strategy, normalization policy, colour mode
// and contour overlay named in cfg.
func StagesFromConfig(cfg *config.HeatmapConfig) (Stages, error) {
	if err := cfg.Validate(); err != nil {
		return Stages{}, err
	}
	in, err := sensor.NewIngestor(cfg.GetLayout(), cfg.GetKeyPrefix())
	if err != nil {
		return Stages{}, err
	}
	rec, err := field.New(cfg.GetStrategy(), cfg.GetFieldOptions())
	if err != nil {
		return Stages{}, err
	}
	norm, err := field.NewNormalizer(cfg.GetNormalization(), cfg.GetRangeMax())
	if err != nil {
		return Stages{}, err
	}

	var col render.Colorizer
	switch cfg.GetColorMode() {
	case render.ModeBanded:
		colors, err := cfg.GetBandColors()
		if err != nil {
			return Stages{}, err
		}
		b, err := render.NewBanded(cfg.GetBandBoundaries(), colors)
		if err != nil {
			return Stages{}, err
		}
		col = b
	default:
		cm, err := render.LookupColorMap(cfg.GetColormap())
		if err != nil {
			return Stages{}, err
		}
		col = render.Continuous{Map: cm}
	}

	stages := Stages{
		Ingestor:      in,
		Grid:          cfg.GetGrid(),
		Reconstructor: rec,
		Normalizer:    norm,
		Colorizer:     col,
	}
	if cfg.ContoursEnabled() {
		c, err := cfg.GetContourColor()
		if err != nil {
			return Stages{}, err
		}
		stages.Overlay = &render.ContourOverlay{
			Levels:   cfg.GetContourLevels(),
			Interval: cfg.GetContourInterval(),
			Unit:     cfg.GetUnit(),
			Color:    c,
			Labels:   cfg.GetContourLabels(),
		}
	}
	return stages, nil
}

// Store returns the frame store the pipeline publishes to.
func (p *Pipeline) Store() *frame.Store { return p.store }

// Stats returns the run counters.
func (p *Pipeline) Stats() monitoring.StatsSnapshot { return p.stats.Snapshot() }

// Layout returns the configured sensor layout.
func (p *Pipeline) Layout() sensor.Layout { return p.stages.Ingestor.Layout() }

// LastSamples returns the most recently ingested sample set, including sets
// that were rejected as no-data.
func (p *Pipeline) LastSamples() (sensor.SampleSet, bool) {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	if p.lastSamples == nil {
		return sensor.SampleSet{}, false
	}
	return *p.lastSamples, true
}

// Run processes one payload. Failures and no-data leave the store untouched.
func (p *Pipeline) Run(payload any) (res Result) {
	start := p.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Status:  Failed,
				Samples: res.Samples,
				Err:     fmt.Errorf("pipeline panic: %v", r),
			}
		}
		if res.Err != nil {
			res.Message = res.Err.Error()
		}
		res.Duration = p.clock.Since(start)
		p.finish(res, start)
	}()

	set, err := p.stages.Ingestor.Ingest(payload)
	res.Samples = set
	if set.Len() > 0 {
		p.lastMu.Lock()
		p.lastSamples = &set
		p.lastMu.Unlock()
	}
	if degraded := set.Degraded(); len(degraded) > 0 {
		p.stats.AddFallbacks(len(degraded))
		parts := make([]string, len(degraded))
		for i, c := range degraded {
			parts[i] = c.String()
		}
		monitoring.Logf("[pipeline] degraded input: %s", strings.Join(parts, ", "))
	}
	if len(set.Ignored) > 0 {
		monitoring.Logf("[pipeline] ignored keys: %s", strings.Join(set.Ignored, ", "))
	}
	if errors.Is(err, sensor.ErrNoData) {
		return Result{Status: NoData, Samples: set, Err: err}
	}
	if err != nil {
		return Result{Status: Failed, Samples: set, Err: fmt.Errorf("ingest: %w", err)}
	}

	raw, err := p.stages.Reconstructor.Reconstruct(set, p.stages.Grid)
	if err != nil {
		return Result{Status: Failed, Samples: set, Err: fmt.Errorf("reconstruct: %w", err)}
	}
	img := p.stages.Colorizer.Colorize(p.stages.Normalizer.Normalize(raw))
	if p.stages.Overlay != nil {
		if err := p.stages.Overlay.Draw(img, raw); err != nil {
			return Result{Status: Failed, Samples: set, Err: err}
		}
	}

	im, err := p.encoder.Encode(uuid.NewString(), img, start)
	if err != nil {
		return Result{Status: Failed, Samples: set, Err: err}
	}
	p.store.Publish(im)
	return Result{Status: Published, Image: im, Samples: set}
}

func (p *Pipeline) finish(res Result, at time.Time) {
	p.stats.Record(string(res.Status), res.Duration, at, errIfFailed(res))
	switch res.Status {
	case Published:
		monitoring.Logf("[pipeline] published frame %s (%dx%d, %d bytes) in %v",
			res.Image.ID, res.Image.Width, res.Image.Height, res.Image.Len(), res.Duration)
	case NoData:
		monitoring.Logf("[pipeline] no data: %s", res.Samples.Summary())
	case Failed:
		monitoring.Logf("[pipeline] failed: %s", res.Message)
	}
}

func errIfFailed(res Result) error {
	if res.Status == Failed {
		return res.Err
	}
	return nil
}
