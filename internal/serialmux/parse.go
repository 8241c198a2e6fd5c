package serialmux

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	EventTypeReadings = "readings"
	EventTypeStatus   = "status"
	EventTypeComment  = "comment"
	EventTypeUnknown  = "unknown"
)

// ClassifyPayload inspects a line from the board and returns an event type
// token. Objects carrying a "<prefix>N" key and arrays or comma separated
// numbers are readings; other objects are status reports from the firmware.
func ClassifyPayload(line, prefix string) string {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return EventTypeUnknown
	case strings.HasPrefix(line, "#"):
		return EventTypeComment
	case strings.HasPrefix(line, "{"):
		if hasReadingKey(line, prefix) {
			return EventTypeReadings
		}
		return EventTypeStatus
	case strings.HasPrefix(line, "["):
		return EventTypeReadings
	}
	first, _, _ := strings.Cut(line, ",")
	if _, err := strconv.ParseFloat(strings.TrimSpace(first), 64); err == nil {
		return EventTypeReadings
	}
	return EventTypeUnknown
}

// hasReadingKey reports whether the object has a key of the form
// "<prefix><digits>". Objects that do not decode are left to the status path,
// which reports the decode error.
func hasReadingKey(line, prefix string) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return false
	}
	for key := range obj {
		if isReadingKey(key, prefix) {
			return true
		}
	}
	return false
}

func isReadingKey(key, prefix string) bool {
	digits, ok := strings.CutPrefix(key, prefix)
	if !ok || digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
