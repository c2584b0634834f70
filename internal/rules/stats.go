package rules

import (
	"maps"
	"sync"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// Stats counts evaluations since start.
type Stats struct {
	Total               int64                     `json:"total"`
	ByDecision          map[domain.Decision]int64 `json:"by_decision"`
	AverageProcessingMs float64                   `json:"average_processing_ms"`
	AverageScore        float64                   `json:"average_score"`
	SnapshotVersion     int64                     `json:"snapshot_version"`
	ActiveRules         int                       `json:"active_rules"`
}

type statsCollector struct {
	mu           sync.Mutex
	total        int64
	byDecision   map[domain.Decision]int64
	processingMs int64
	scoreSum     float64
}

func newStatsCollector() *statsCollector {
	return &statsCollector{byDecision: make(map[domain.Decision]int64)}
}

func (c *statsCollector) record(d *domain.QualityDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.byDecision[d.Decision]++
	c.processingMs += d.ProcessingTimeMs
	c.scoreSum += d.OverallScore
}

func (c *statsCollector) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Total:      c.total,
		ByDecision: maps.Clone(c.byDecision),
	}
	if c.total > 0 {
		s.AverageProcessingMs = float64(c.processingMs) / float64(c.total)
		s.AverageScore = c.scoreSum / float64(c.total)
	}
	return s
}
