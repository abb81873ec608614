package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aggregateAsOf = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func scorePtr(v int) *int { return &v }

func TestAggregateOverall_ConfidenceWeightedAverage(t *testing.T) {
	results := HazardResults{
		HazardFlood:    {Score: scorePtr(80), Confidence: 0.9},
		HazardWildfire: {Score: scorePtr(40), Confidence: 0.5},
	}
	configs := HazardConfigSet{
		HazardFlood:    {Weight: 0.25},
		HazardWildfire: {Weight: 0.20},
	}

	overall, ok := AggregateOverall(results, configs)

	// (80×0.225 + 40×0.10) / 0.325 = 67.69, rounded to 68.
	require.True(t, ok)
	assert.Equal(t, 68, overall)
}

func TestAggregateOverall_NilScoresExcluded(t *testing.T) {
	results := HazardResults{
		HazardFlood:    {Score: scorePtr(80), Confidence: 0.9},
		HazardWildfire: {Score: nil},
	}
	configs := DefaultHazardConfigs()

	overall, ok := AggregateOverall(results, configs)

	require.True(t, ok)
	assert.Equal(t, 80, overall, "a missing hazard must not drag the overall toward zero")
}

func TestAggregateOverall_AllNil(t *testing.T) {
	results := HazardResults{
		HazardFlood:    {Score: nil},
		HazardWildfire: {Score: nil},
	}

	overall, ok := AggregateOverall(results, DefaultHazardConfigs())

	assert.False(t, ok)
	assert.Zero(t, overall)
}

func TestAggregateOverall_UnconfiguredHazardIgnored(t *testing.T) {
	results := HazardResults{
		HazardFlood:   {Score: scorePtr(80), Confidence: 0.9},
		HazardTornado: {Score: scorePtr(10), Confidence: 0.9},
	}
	configs := HazardConfigSet{HazardFlood: {Weight: 0.25}}

	overall, ok := AggregateOverall(results, configs)

	require.True(t, ok)
	assert.Equal(t, 80, overall)
}

func TestAggregateOverall_ZeroConfidenceContributesNothing(t *testing.T) {
	results := HazardResults{
		HazardFlood: {Score: scorePtr(80), Confidence: 0},
	}
	configs := HazardConfigSet{HazardFlood: {Weight: 0.25}}

	_, ok := AggregateOverall(results, configs)
	assert.False(t, ok)
}

func TestEstimateConfidence_SubScores(t *testing.T) {
	configs := HazardConfigSet{
		HazardFlood:    {Weight: 0.25, PrimarySources: []string{"FEMA_NRI"}},
		HazardWildfire: {Weight: 0.20, PrimarySources: []string{"USFS_WHP"}},
	}
	results := HazardResults{
		HazardFlood: {
			Score:      scorePtr(80),
			Confidence: 0.9,
			Sources:    []SourceContribution{{SourceID: "FEMA_NRI", Score: 80, Weight: 0.95, IsPrimary: true}},
		},
		HazardWildfire: {Score: nil},
	}
	sourcesByID := map[string]NormalizedSource{
		"FEMA_NRI": {
			SourceID:    "FEMA_NRI",
			LastUpdated: aggregateAsOf.AddDate(0, 0, -10),
		},
	}

	summary := EstimateConfidence(results, configs, DefaultSourceReliabilities(), sourcesByID, aggregateAsOf)

	assert.Equal(t, 0.5, summary.Completeness)
	assert.Equal(t, 0.95, summary.Reliability)
	assert.Equal(t, 1.0, summary.Recency)
	// 0.9×0.2 + 0.5×0.2 + 0.95×0.3 + 1.0×0.3 = 0.865
	assert.InDelta(t, 0.87, summary.OverallConfidence, 0.011)
}

func TestEstimateConfidence_NothingScored(t *testing.T) {
	results := HazardResults{
		HazardFlood: {Score: nil},
	}

	summary := EstimateConfidence(results, DefaultHazardConfigs(), DefaultSourceReliabilities(), nil, aggregateAsOf)

	assert.Equal(t, DataQualitySummary{}, summary)
}

func TestEstimateConfidence_UnknownSourceTimestampUsesStaleWeight(t *testing.T) {
	configs := HazardConfigSet{HazardFlood: {Weight: 0.25}}
	results := HazardResults{
		HazardFlood: {
			Score:      scorePtr(50),
			Confidence: 0.8,
			Sources:    []SourceContribution{{SourceID: "FEMA_NRI", Score: 50, Weight: 0.95, IsPrimary: true}},
		},
	}

	// No entry in sourcesByID for the contributing source.
	summary := EstimateConfidence(results, configs, DefaultSourceReliabilities(), nil, aggregateAsOf)

	assert.Equal(t, 0.5, summary.Recency)
}

func TestEstimateConfidence_DistinctSourcesCountedOnce(t *testing.T) {
	configs := HazardConfigSet{
		HazardFlood:    {Weight: 0.25},
		HazardWildfire: {Weight: 0.20},
	}
	shared := []SourceContribution{{SourceID: "FirstStreet", Score: 60, Weight: 0.9, IsPrimary: true}}
	results := HazardResults{
		HazardFlood:    {Score: scorePtr(60), Confidence: 0.8, Sources: shared},
		HazardWildfire: {Score: scorePtr(55), Confidence: 0.8, Sources: shared},
	}
	sourcesByID := map[string]NormalizedSource{
		"FirstStreet": {SourceID: "FirstStreet", LastUpdated: aggregateAsOf.AddDate(0, 0, -5)},
	}

	summary := EstimateConfidence(results, configs, DefaultSourceReliabilities(), sourcesByID, aggregateAsOf)

	// One distinct source, reliability 0.90, not averaged down by reuse.
	assert.Equal(t, 0.9, summary.Reliability)
	assert.Equal(t, 1.0, summary.Completeness)
}
