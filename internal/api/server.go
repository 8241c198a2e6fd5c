// Package api serves heatmap frames, pipeline status and the sample chart
// over HTTP, and pushes frame notifications over a websocket.
package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"tailscale.com/tsweb"

	"github.com/banshee-data/heatgrid/internal/config"
	"github.com/banshee-data/heatgrid/internal/monitoring"
	"github.com/banshee-data/heatgrid/internal/pipeline"
	"github.com/banshee-data/heatgrid/internal/serialmux"
)

// ANSI escape codes for request logging.
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	pipe *pipeline.Pipeline
	cfg  *config.HeatmapConfig
	m    serialmux.SerialMuxInterface

	boardState func() map[string]any

	upgrader  websocket.Upgrader
	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

// NewServer returns a server for the given pipeline. m may be a disabled mux.
func NewServer(p *pipeline.Pipeline, cfg *config.HeatmapConfig, m serialmux.SerialMuxInterface) *Server {
	return &Server{
		pipe: p,
		cfg:  cfg,
		m:    m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// SetBoardState registers the source of the sensor board's status values
// reported by /api/status.
func (s *Server) SetBoardState(fn func() map[string]any) {
	s.boardState = fn
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	lrw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// CORSMiddleware allows any origin and answers preflight requests.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Expose-Headers", "X-Frame-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeMux returns the public routes. Only the frame routes carry the
// permissive CORS headers.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	heatmap := CORSMiddleware(http.HandlerFunc(s.handleHeatmap))
	mux.Handle("/heatmap", heatmap)
	mux.Handle("/heatmap/", heatmap)
	mux.Handle("/heatmap/latest", CORSMiddleware(http.HandlerFunc(s.handleLatest)))
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/samples/chart", s.handleSampleChart)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Handler returns the public routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.ServeMux())
}

// AttachAdminRoutes adds pipeline counters to the /debug/ page and serves
// /debug/command, which writes to the sensor board.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleSilentFunc("command", s.sendCommandHandler)
	debug.KVFunc("Pipeline runs", func() any { return s.pipe.Stats().Runs })
	debug.KVFunc("Frames published", func() any { return s.pipe.Stats().Published })
	debug.KVFunc("No-data readings", func() any { return s.pipe.Stats().NoData })
	debug.KVFunc("Pipeline failures", func() any { return s.pipe.Stats().Failures })
	debug.KVFunc("Fallback readings", func() any { return s.pipe.Stats().Fallbacks })
	debug.KVFunc("Websocket clients", func() any { return s.clientCount() })
}
