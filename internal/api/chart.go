package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/heatgrid/internal/httputil"
	"github.com/banshee-data/heatgrid/internal/units"
)

// echartsAssetsPrefix is where the rendered pages load echarts from.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// fallbackColor marks readings that were replaced by the default value.
const fallbackColor = "#d7191c"

// handleSampleChart renders the last ingested readings as a bar chart. The
// optional ?unit= query converts the values from the configured unit.
func (s *Server) handleSampleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	from := s.cfg.GetUnit()
	to := from
	if u := r.URL.Query().Get("unit"); u != "" {
		if !units.IsValid(u) {
			httputil.BadRequest(w, fmt.Sprintf("invalid unit %q, expected one of: %s", u, units.GetValidUnitsString()))
			return
		}
		to = u
	}

	set, ok := s.pipe.LastSamples()
	if !ok {
		httputil.NoContent(w)
		return
	}

	x := make([]string, set.Len())
	y := make([]opts.BarData, set.Len())
	for i, p := range set.Points {
		c := set.Coercions[i]
		x[i] = c.Key
		y[i] = opts.BarData{Value: units.ConvertDistance(p.Value, from, to)}
		if c.Fallback {
			y[i].ItemStyle = &opts.ItemStyle{Color: fallbackColor}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "heatgrid samples", Width: "100%", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Latest sensor readings", Subtitle: fmt.Sprintf("%s at %s", set.Summary(), time.Now().Format(time.RFC3339))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("distance (%s)", to)}),
	)
	bar.SetXAxis(x).
		AddSeries("readings", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
