package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var normalizeAsOf = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestNormalizeSource_Defaults(t *testing.T) {
	src := NormalizeSource("FEMA_NRI", RawSourcePayload{}, normalizeAsOf)

	assert.Equal(t, "FEMA_NRI", src.SourceID)
	assert.Equal(t, normalizeAsOf, src.LastUpdated)
	assert.Equal(t, 0.8, src.DataQuality)
	assert.Empty(t, src.Risks)
}

func TestNormalizeSource_TimestampAliases(t *testing.T) {
	ts := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	for _, key := range []string{"last_updated", "lastUpdated", "timestamp", "updated_at"} {
		t.Run(key, func(t *testing.T) {
			src := NormalizeSource("s", RawSourcePayload{key: ts.Format(time.RFC3339)}, normalizeAsOf)
			assert.True(t, src.LastUpdated.Equal(ts))
		})
	}
}

func TestNormalizeSource_DateOnlyTimestamp(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{"last_updated": "2026-03-15"}, normalizeAsOf)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), src.LastUpdated)
}

func TestNormalizeSource_MalformedTimestampFallsBack(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{"last_updated": "not-a-date"}, normalizeAsOf)
	assert.Equal(t, normalizeAsOf, src.LastUpdated)
}

func TestNormalizeSource_DataQuality(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{"data_quality": 0.95}, normalizeAsOf)
	assert.Equal(t, 0.95, src.DataQuality)

	src = NormalizeSource("s", RawSourcePayload{"dataQuality": 1.5}, normalizeAsOf)
	assert.Equal(t, 1.0, src.DataQuality, "quality is clamped into [0,1]")
}

func TestNormalizeSource_BareNumberEntry(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{
		"flood":        80.0,
		"data_quality": 0.9,
	}, normalizeAsOf)

	entry, ok := src.Risks[HazardFlood]
	require.True(t, ok)
	assert.Equal(t, 80.0, entry.Score)
	assert.Equal(t, 0.9, entry.Confidence, "bare numbers inherit the source quality as confidence")
}

func TestNormalizeSource_ObjectEntry(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{
		"wildfire": map[string]interface{}{"score": 65.0, "confidence": 0.7},
	}, normalizeAsOf)

	entry, ok := src.Risks[HazardWildfire]
	require.True(t, ok)
	assert.Equal(t, 65.0, entry.Score)
	assert.Equal(t, 0.7, entry.Confidence)
}

func TestNormalizeSource_ScoreKeyAliases(t *testing.T) {
	for _, key := range []string{"score", "value", "rating"} {
		t.Run(key, func(t *testing.T) {
			src := NormalizeSource("s", RawSourcePayload{
				"heat": map[string]interface{}{key: 42.0},
			}, normalizeAsOf)
			entry, ok := src.Risks[HazardHeat]
			require.True(t, ok)
			assert.Equal(t, 42.0, entry.Score)
		})
	}
}

func TestNormalizeSource_QualityAliasForConfidence(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{
		"drought": map[string]interface{}{"score": 30.0, "quality": 0.55},
	}, normalizeAsOf)
	entry := src.Risks[HazardDrought]
	assert.Equal(t, 0.55, entry.Confidence)
}

func TestNormalizeSource_MissingConfidenceDefaultsToSourceQuality(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{
		"data_quality": 0.6,
		"flood":        map[string]interface{}{"score": 50.0},
	}, normalizeAsOf)
	assert.Equal(t, 0.6, src.Risks[HazardFlood].Confidence)
}

func TestNormalizeSource_MalformedEntriesDroppedPerHazard(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{
		"flood":    "high",                                    // not numeric
		"wildfire": map[string]interface{}{"note": "no data"}, // no score key
		"heat":     55.0,                                      // fine
	}, normalizeAsOf)

	assert.NotContains(t, src.Risks, HazardFlood)
	assert.NotContains(t, src.Risks, HazardWildfire)
	assert.Contains(t, src.Risks, HazardHeat)
}

func TestNormalizeSource_ClampsScores(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{
		"flood":    150.0,
		"wildfire": -20.0,
	}, normalizeAsOf)

	assert.Equal(t, 100.0, src.Risks[HazardFlood].Score)
	assert.Equal(t, 0.0, src.Risks[HazardWildfire].Score)
}

func TestNormalizeSource_IntegerShapes(t *testing.T) {
	src := NormalizeSource("s", RawSourcePayload{"flood": 80}, normalizeAsOf)
	entry, ok := src.Risks[HazardFlood]
	require.True(t, ok)
	assert.Equal(t, 80.0, entry.Score)
}
