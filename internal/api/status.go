package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/banshee-data/heatgrid/internal/field"
	"github.com/banshee-data/heatgrid/internal/frame"
	"github.com/banshee-data/heatgrid/internal/httputil"
	"github.com/banshee-data/heatgrid/internal/monitoring"
	"github.com/banshee-data/heatgrid/internal/render"
	"github.com/banshee-data/heatgrid/internal/units"
	"github.com/banshee-data/heatgrid/internal/version"
)

type statusResponse struct {
	Version   version.Info             `json:"version"`
	Stats     monitoring.StatsSnapshot `json:"stats"`
	Frame     *frame.Metadata          `json:"frame"`
	Board     map[string]any           `json:"board,omitempty"`
	WSClients int                      `json:"ws_clients"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := statusResponse{
		Version:   version.Get(),
		Stats:     s.pipe.Stats(),
		WSClients: s.clientCount(),
	}
	if im, ok := s.pipe.Store().Fetch(); ok {
		md := im.Metadata()
		resp.Frame = &md
	}
	if s.boardState != nil {
		resp.Board = s.boardState()
	}
	httputil.WriteJSONOK(w, resp)
}

type gridSummary struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type contourSummary struct {
	Levels   []float64 `json:"levels,omitempty"`
	Interval float64   `json:"interval,omitempty"`
	Color    string    `json:"color"`
	Labels   bool      `json:"labels"`
}

type configResponse struct {
	Grid           gridSummary     `json:"grid"`
	Sensors        int             `json:"sensors"`
	Layout         [][2]float64    `json:"layout"`
	KeyPrefix      string          `json:"key_prefix"`
	Unit           string          `json:"unit"`
	UnitLabel      string          `json:"unit_label"`
	Strategy       string          `json:"strategy"`
	Options        field.Options   `json:"options"`
	Normalization  string          `json:"normalization"`
	RangeMax       float64         `json:"range_max"`
	ColorMode      string          `json:"color_mode"`
	Colormap       string          `json:"colormap,omitempty"`
	BandBoundaries []float64       `json:"band_boundaries,omitempty"`
	BandColors     []string        `json:"band_colors,omitempty"`
	Contours       *contourSummary `json:"contours,omitempty"`
	Strategies     []string        `json:"available_strategies"`
	Colormaps      []string        `json:"available_colormaps"`
	Units          []string        `json:"available_units"`
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	g := s.cfg.GetGrid()
	layout := s.cfg.GetLayout()
	resp := configResponse{
		Grid:          gridSummary{Width: g.W, Height: g.H},
		Sensors:       len(layout),
		Layout:        make([][2]float64, len(layout)),
		KeyPrefix:     s.cfg.GetKeyPrefix(),
		Unit:          s.cfg.GetUnit(),
		UnitLabel:     units.Label(s.cfg.GetUnit()),
		Strategy:      s.cfg.GetStrategy(),
		Options:       s.cfg.GetFieldOptions(),
		Normalization: s.cfg.GetNormalization(),
		RangeMax:      s.cfg.GetRangeMax(),
		ColorMode:     s.cfg.GetColorMode(),
		Strategies:    field.Strategies(),
		Colormaps:     render.ColorMaps(),
		Units:         units.ValidUnits,
	}
	for i, p := range layout {
		resp.Layout[i] = [2]float64{p.X, p.Y}
	}

	if resp.ColorMode == render.ModeBanded {
		resp.BandBoundaries = s.cfg.GetBandBoundaries()
		colors, err := s.cfg.GetBandColors()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		for _, c := range colors {
			resp.BandColors = append(resp.BandColors, render.HexColor(c))
		}
	} else {
		resp.Colormap = s.cfg.GetColormap()
	}

	if s.cfg.ContoursEnabled() {
		c, err := s.cfg.GetContourColor()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		resp.Contours = &contourSummary{
			Levels:   s.cfg.GetContourLevels(),
			Interval: s.cfg.GetContourInterval(),
			Color:    render.HexColor(c),
			Labels:   s.cfg.GetContourLabels(),
		}
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

// sendCommandHandler writes a command to the sensor board.
func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	command := r.FormValue("command")
	if command == "" {
		httputil.BadRequest(w, "missing command")
		return
	}
	if err := s.m.SendCommand(command); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to send command: %v", err))
		return
	}
	io.WriteString(w, "Command sent successfully")
}
