package risk

import (
	"encoding/json"
	"time"
)

// defaultDataQuality is assumed when a provider does not self-report one.
const defaultDataQuality = 0.8

// RiskEntry is one provider's report for one hazard type.
type RiskEntry struct {
	// Score is the provider's risk score, clamped into [0,100].
	Score float64 `json:"score"`

	// Confidence is the provider's confidence in the score, in [0,1].
	Confidence float64 `json:"confidence"`
}

// NormalizedSource is the canonical record for one provider's contribution to
// an aggregation call.  It is created per call from the raw collaborator
// payload, treated as immutable, and discarded after the call.
type NormalizedSource struct {
	// SourceID uniquely identifies the provider.
	SourceID string `json:"source_id"`

	// LastUpdated is the provider's data timestamp.  A zero value means the
	// provider reported none and none could be defaulted.
	LastUpdated time.Time `json:"last_updated"`

	// DataQuality is the provider's self-reported quality, defaulted to 0.8.
	DataQuality float64 `json:"data_quality"`

	// Risks maps hazard types to the provider's report.  Providers need not
	// report every hazard; absence is semantically distinct from a zero
	// score and is preserved as a missing key.
	Risks map[HazardType]RiskEntry `json:"risks"`
}

// RawSourcePayload is a provider payload as delivered by the source-fetch
// collaborator: a loosely-typed JSON object whose hazard entries may be bare
// numbers or objects with varying key names.  The normalizer is the only
// place in the engine that touches this shape.
type RawSourcePayload map[string]interface{}

// Raw payload field names recognized by the normalizer.  Different providers
// use different spellings; all are folded into the canonical record here.
var (
	lastUpdatedKeys = []string{"last_updated", "lastUpdated", "timestamp", "updated_at"}
	dataQualityKeys = []string{"data_quality", "dataQuality"}
	scoreKeys       = []string{"score", "value", "rating"}
	confidenceKeys  = []string{"confidence", "quality"}
)

// NormalizeSource converts one provider's raw payload into a NormalizedSource.
//
// Contract: a missing lastUpdated defaults to asOf; a missing dataQuality
// defaults to 0.8; a risk entry whose numeric fields are absent or malformed
// is omitted from Risks rather than defaulted to zero.  Malformed data never
// produces an error — the offending entry is dropped for that hazard only,
// never for the whole request.
func NormalizeSource(sourceID string, payload RawSourcePayload, asOf time.Time) NormalizedSource {
	src := NormalizedSource{
		SourceID:    sourceID,
		LastUpdated: asOf,
		DataQuality: defaultDataQuality,
		Risks:       make(map[HazardType]RiskEntry),
	}

	// Metadata first: entry-level confidence defaults to the source's
	// dataQuality, so it has to be known before entries are parsed.
	for _, key := range lastUpdatedKeys {
		if raw, ok := payload[key]; ok {
			if ts, ok := toTime(raw); ok {
				src.LastUpdated = ts
				break
			}
		}
	}
	for _, key := range dataQualityKeys {
		if raw, ok := payload[key]; ok {
			if q, ok := toFloat(raw); ok {
				src.DataQuality = clampUnit(q)
				break
			}
		}
	}

	for _, hazard := range AllHazardTypes() {
		raw, ok := payload[string(hazard)]
		if !ok {
			continue
		}
		if entry, ok := parseRiskEntry(raw, src.DataQuality); ok {
			src.Risks[hazard] = entry
		}
	}

	return src
}

// parseRiskEntry accepts either a bare number or an object carrying
// score|value|rating and confidence|quality.  The second return value is
// false when no usable score is present.
func parseRiskEntry(raw interface{}, sourceQuality float64) (RiskEntry, bool) {
	if score, ok := toFloat(raw); ok {
		return RiskEntry{Score: clampScore(score), Confidence: clampUnit(sourceQuality)}, true
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return RiskEntry{}, false
	}

	entry := RiskEntry{Confidence: clampUnit(sourceQuality)}
	found := false
	for _, key := range scoreKeys {
		if v, present := obj[key]; present {
			if score, numeric := toFloat(v); numeric {
				entry.Score = clampScore(score)
				found = true
				break
			}
		}
	}
	if !found {
		return RiskEntry{}, false
	}
	for _, key := range confidenceKeys {
		if v, present := obj[key]; present {
			if conf, numeric := toFloat(v); numeric {
				entry.Confidence = clampUnit(conf)
				break
			}
		}
	}
	return entry, true
}

// toFloat extracts a float64 from the numeric shapes a decoded JSON or YAML
// payload can carry.
func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// toTime extracts a timestamp from either a time.Time value or an RFC 3339
// string.
func toTime(raw interface{}) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02", v); err == nil {
			return ts, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
