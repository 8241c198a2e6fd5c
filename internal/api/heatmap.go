package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/banshee-data/heatgrid/internal/httputil"
	"github.com/banshee-data/heatgrid/internal/pipeline"
	"github.com/banshee-data/heatgrid/internal/sensor"
)

// maxBodyBytes caps a readings request body.
const maxBodyBytes = 1 << 20

// frameFilename is the inline filename of every returned frame.
const frameFilename = "heatmap.png"

var errUnsupportedMediaType = errors.New("unsupported media type")

// decodeBody turns a request body into an ingestor payload. JSON is the
// default; CBOR and plain comma separated text are also accepted.
func decodeBody(contentType string, body []byte) (any, error) {
	mediaType := "application/json"
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUnsupportedMediaType, err)
		}
		mediaType = mt
	}
	switch mediaType {
	case "application/json":
		return sensor.DecodeJSON(body)
	case "application/cbor":
		return sensor.DecodeCBOR(body)
	case "text/plain", "text/csv":
		return sensor.ParseLine(string(body))
	}
	return nil, fmt.Errorf("%w: %s", errUnsupportedMediaType, mediaType)
}

// handleHeatmap runs one set of readings through the pipeline and replies
// with the resulting PNG.
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/heatmap" && r.URL.Path != "/heatmap/" {
		httputil.NotFound(w, "not found")
		return
	}
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		httputil.BadRequest(w, fmt.Sprintf("failed to read body: %v", err))
		return
	}

	payload, err := decodeBody(r.Header.Get("Content-Type"), body)
	if errors.Is(err, errUnsupportedMediaType) {
		httputil.UnsupportedMediaType(w, err.Error())
		return
	}
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid body: %v", err))
		return
	}

	res := s.pipe.Run(payload)
	switch res.Status {
	case pipeline.Published:
		httputil.WriteImage(w, res.Image, frameFilename)
	case pipeline.NoData:
		httputil.NoContent(w)
	default:
		httputil.InternalServerError(w, res.Message)
	}
}

// handleLatest serves the most recently published frame.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httputil.MethodNotAllowed(w)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	im, ok := s.pipe.Store().Fetch()
	if !ok {
		httputil.NoContent(w)
		return
	}
	httputil.WriteImage(w, im, frameFilename)
}
