package assessment

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCollector_Empty(t *testing.T) {
	snap := NewStatsCollector().Snapshot()

	assert.Zero(t, snap.TotalAggregations)
	assert.Zero(t, snap.SuccessRate)
	assert.Zero(t, snap.AverageConfidence)
	assert.Empty(t, snap.MostUsedSources)
}

func TestStatsCollector_Averages(t *testing.T) {
	stats := NewStatsCollector()
	stats.RecordSuccess(0.8, 100, []string{"FEMA_NRI"})
	stats.RecordSuccess(0.6, 300, []string{"FEMA_NRI", "FirstStreet"})
	stats.RecordFailure()

	snap := stats.Snapshot()

	assert.Equal(t, int64(3), snap.TotalAggregations)
	assert.Equal(t, int64(2), snap.SuccessfulAggregations)
	assert.InDelta(t, 2.0/3.0, snap.SuccessRate, 0.001)
	assert.InDelta(t, 0.7, snap.AverageConfidence, 0.001)
	assert.InDelta(t, 200, snap.AverageProcessingTimeMs, 0.001)
}

func TestStatsCollector_SourceRanking(t *testing.T) {
	stats := NewStatsCollector()
	stats.RecordSuccess(0.8, 10, []string{"FEMA_NRI", "FirstStreet"})
	stats.RecordSuccess(0.8, 10, []string{"FEMA_NRI"})
	stats.RecordSuccess(0.8, 10, []string{"ClimateCheck"})

	snap := stats.Snapshot()

	require.Len(t, snap.MostUsedSources, 3)
	assert.Equal(t, SourceUsage{SourceID: "FEMA_NRI", Count: 2}, snap.MostUsedSources[0])
	// Equal counts rank alphabetically, keeping snapshots deterministic.
	assert.Equal(t, "ClimateCheck", snap.MostUsedSources[1].SourceID)
	assert.Equal(t, "FirstStreet", snap.MostUsedSources[2].SourceID)
}

func TestStatsCollector_RankingCapped(t *testing.T) {
	stats := NewStatsCollector()
	for i := 0; i < 15; i++ {
		stats.RecordSuccess(0.8, 10, []string{fmt.Sprintf("source-%02d", i)})
	}

	snap := stats.Snapshot()
	assert.Len(t, snap.MostUsedSources, 10)
}

func TestStatsCollector_ConcurrentUpdates(t *testing.T) {
	stats := NewStatsCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			stats.RecordSuccess(0.5, 10, []string{"FEMA_NRI"})
		}()
		go func() {
			defer wg.Done()
			stats.RecordFailure()
		}()
	}
	wg.Wait()

	snap := stats.Snapshot()
	assert.Equal(t, int64(100), snap.TotalAggregations)
	assert.Equal(t, int64(50), snap.SuccessfulAggregations)
	require.Len(t, snap.MostUsedSources, 1)
	assert.Equal(t, int64(50), snap.MostUsedSources[0].Count)
}

func TestStatsCollector_SnapshotIsCopy(t *testing.T) {
	stats := NewStatsCollector()
	stats.RecordSuccess(0.8, 10, []string{"FEMA_NRI"})

	before := stats.Snapshot()
	stats.RecordSuccess(0.8, 10, []string{"FEMA_NRI"})

	assert.Equal(t, int64(1), before.TotalAggregations)
	assert.Equal(t, int64(2), stats.Snapshot().TotalAggregations)
}
