package assessment

import (
	"sort"
	"sync"
)

// SourceUsage is one entry of the most-used-sources ranking.
type SourceUsage struct {
	SourceID string `json:"source_id"`
	Count    int64  `json:"count"`
}

// StatsSnapshot is the queryable view of the running aggregation statistics.
// It is a point-in-time copy; the collector keeps counting after a snapshot
// is taken.
type StatsSnapshot struct {
	TotalAggregations       int64         `json:"total_aggregations"`
	SuccessfulAggregations  int64         `json:"successful_aggregations"`
	SuccessRate             float64       `json:"success_rate"`
	AverageConfidence       float64       `json:"average_confidence"`
	AverageProcessingTimeMs float64       `json:"average_processing_time_ms"`
	MostUsedSources         []SourceUsage `json:"most_used_sources"`
}

// StatsCollector accumulates running statistics across aggregation calls.
// Implementations must be safe for concurrent use; the orchestrator may be
// invoked in parallel for different properties and no update may be lost.
type StatsCollector interface {
	RecordSuccess(confidence float64, processingMs int64, sourceIDs []string)
	RecordFailure()
	Snapshot() StatsSnapshot
}

// mostUsedSourcesLimit caps the ranking returned in a snapshot.
const mostUsedSourcesLimit = 10

// memoryStats is the in-process StatsCollector.  A single mutex guards all
// counters; updates are cheap and contention is bounded by aggregation
// throughput, so finer-grained atomics buy nothing here.
type memoryStats struct {
	mu sync.Mutex

	total         int64
	successful    int64
	confidenceSum float64
	processingSum int64
	sourceCounts  map[string]int64
}

// NewStatsCollector returns an empty in-process collector.
func NewStatsCollector() StatsCollector {
	return &memoryStats{sourceCounts: make(map[string]int64)}
}

func (s *memoryStats) RecordSuccess(confidence float64, processingMs int64, sourceIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.successful++
	s.confidenceSum += confidence
	s.processingSum += processingMs
	for _, id := range sourceIDs {
		s.sourceCounts[id]++
	}
}

func (s *memoryStats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
}

func (s *memoryStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalAggregations:      s.total,
		SuccessfulAggregations: s.successful,
	}
	if s.total > 0 {
		snap.SuccessRate = float64(s.successful) / float64(s.total)
	}
	if s.successful > 0 {
		snap.AverageConfidence = s.confidenceSum / float64(s.successful)
		snap.AverageProcessingTimeMs = float64(s.processingSum) / float64(s.successful)
	}

	snap.MostUsedSources = make([]SourceUsage, 0, len(s.sourceCounts))
	for id, count := range s.sourceCounts {
		snap.MostUsedSources = append(snap.MostUsedSources, SourceUsage{SourceID: id, Count: count})
	}
	sort.Slice(snap.MostUsedSources, func(i, j int) bool {
		if snap.MostUsedSources[i].Count != snap.MostUsedSources[j].Count {
			return snap.MostUsedSources[i].Count > snap.MostUsedSources[j].Count
		}
		return snap.MostUsedSources[i].SourceID < snap.MostUsedSources[j].SourceID
	})
	if len(snap.MostUsedSources) > mostUsedSourcesLimit {
		snap.MostUsedSources = snap.MostUsedSources[:mostUsedSourcesLimit]
	}
	return snap
}
