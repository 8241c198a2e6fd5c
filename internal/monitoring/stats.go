package monitoring

import (
	"sync"
	"time"
)

// PipelineStats counts pipeline outcomes. It is safe for concurrent use.
type PipelineStats struct {
	mu sync.Mutex

	runs      uint64
	published uint64
	noData    uint64
	failures  uint64
	fallbacks uint64

	lastStatus   string
	lastError    string
	lastDuration time.Duration
	lastRunAt    time.Time
}

// StatsSnapshot is a point-in-time copy of PipelineStats.
type StatsSnapshot struct {
	Runs           uint64    `json:"runs"`
	Published      uint64    `json:"published"`
	NoData         uint64    `json:"no_data"`
	Failures       uint64    `json:"failures"`
	Fallbacks      uint64    `json:"fallbacks"`
	LastStatus     string    `json:"last_status,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	LastDurationMS float64   `json:"last_duration_ms"`
	LastRunAt      time.Time `json:"last_run_at"`
}

// Record counts one finished run. status is the outcome name; err may be nil.
func (s *PipelineStats) Record(status string, d time.Duration, at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	switch status {
	case "published":
		s.published++
	case "no-data":
		s.noData++
	case "failed":
		s.failures++
	}
	s.lastStatus = status
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.lastDuration = d
	s.lastRunAt = at
}

// AddFallbacks counts readings that were replaced by the default value.
func (s *PipelineStats) AddFallbacks(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallbacks += uint64(n)
}

// Snapshot returns the current counters.
func (s *PipelineStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Runs:           s.runs,
		Published:      s.published,
		NoData:         s.noData,
		Failures:       s.failures,
		Fallbacks:      s.fallbacks,
		LastStatus:     s.lastStatus,
		LastError:      s.lastError,
		LastDurationMS: float64(s.lastDuration) / float64(time.Millisecond),
		LastRunAt:      s.lastRunAt,
	}
}
