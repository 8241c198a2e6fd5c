package serialmux

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/banshee-data/heatgrid/internal/monitoring"
	"github.com/banshee-data/heatgrid/internal/pipeline"
	"github.com/banshee-data/heatgrid/internal/sensor"
)

// Processor runs one payload through the heatmap pipeline.
type Processor interface {
	Run(payload any) pipeline.Result
}

// EventHandler routes board lines: readings go to the processor, status
// objects are merged into the board state.
type EventHandler struct {
	proc   Processor
	prefix string

	mu    sync.Mutex
	state map[string]any
}

// NewEventHandler returns a handler for readings keyed "<prefix>N".
func NewEventHandler(proc Processor, prefix string) *EventHandler {
	if prefix == "" {
		prefix = sensor.DefaultKeyPrefix
	}
	return &EventHandler{proc: proc, prefix: prefix, state: make(map[string]any)}
}

// BoardState returns a copy of the latest status values reported by the board.
func (h *EventHandler) BoardState() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return maps.Clone(h.state)
}

func (h *EventHandler) handleStatus(line string) error {
	var values map[string]any
	if err := json.Unmarshal([]byte(line), &values); err != nil {
		return fmt.Errorf("failed to unmarshal status: %w", err)
	}
	h.mu.Lock()
	maps.Copy(h.state, values)
	h.mu.Unlock()
	monitoring.Logf("[serial] status: %s", line)
	return nil
}

// HandleEvent processes one line. No-data readings are not an error.
func (h *EventHandler) HandleEvent(line string) error {
	switch ClassifyPayload(line, h.prefix) {
	case EventTypeReadings:
		payload, err := sensor.ParseLine(line)
		if err != nil {
			return fmt.Errorf("failed to parse readings: %w", err)
		}
		if res := h.proc.Run(payload); res.Status == pipeline.Failed {
			return fmt.Errorf("pipeline: %s", res.Message)
		}
	case EventTypeStatus:
		if err := h.handleStatus(line); err != nil {
			return fmt.Errorf("failed to handle status event: %w", err)
		}
	case EventTypeComment:
		monitoring.Logf("[serial] %s", line)
	default:
		monitoring.Logf("[serial] unknown event type: %q", line)
	}
	return nil
}

// Consume handles lines from ch until it closes or ctx is done.
func (h *EventHandler) Consume(ctx context.Context, ch <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-ch:
			if !ok {
				return
			}
			if err := h.HandleEvent(line); err != nil {
				monitoring.Logf("[serial] error handling line: %v", err)
			}
		}
	}
}
