package risk

import (
	"math"
	"time"
)

// Fixed sub-score weights of the overall confidence estimate.
const (
	confidenceWeightRecency         = 0.3
	confidenceWeightReliability     = 0.3
	confidenceWeightCompleteness    = 0.2
	confidenceWeightCrossValidation = 0.2
)

// DataQualitySummary carries the four confidence sub-scores and their
// combination.  All values are in [0,1] and rounded to 2 decimal places.
type DataQualitySummary struct {
	OverallConfidence float64 `json:"overall_confidence"`
	Completeness      float64 `json:"completeness"`
	Reliability       float64 `json:"reliability"`
	Recency           float64 `json:"recency"`
}

// AggregateOverall combines all per-hazard scores into one overall score.
// Each scored hazard contributes with weight hazardWeight×hazardConfidence;
// hazards with a nil score are excluded from both numerator and denominator —
// they do not count as zero.  The result is rounded to the nearest integer
// and clamped to [0,100].
//
// When every hazard is nil the overall score is 0 and the second return value
// is false.  The zero is an explicit edge-case policy, not arithmetic
// fallout; callers must pair it with LevelUnknown so "no data" stays visible.
func AggregateOverall(results HazardResults, configs HazardConfigSet) (int, bool) {
	var weightedSum, weightSum float64
	for hazard, result := range results {
		if result.Score == nil {
			continue
		}
		cfg, configured := configs[hazard]
		if !configured {
			continue
		}
		weight := cfg.Weight * result.Confidence
		weightedSum += float64(*result.Score) * weight
		weightSum += weight
	}
	if weightSum == 0 {
		return 0, false
	}
	return int(math.Round(clampScore(weightedSum / weightSum))), true
}

// EstimateConfidence combines per-hazard confidences, source reliability,
// data completeness, and recency into one overall confidence:
//
//	overall = crossValidation×0.2 + completeness×0.2 + reliability×0.3 + recency×0.3
//
// where crossValidation is the mean of all non-zero per-hazard confidences,
// completeness is scored-hazards / configured-hazards, and reliability and
// recency are averaged over the distinct sources actually used — not over
// every configured source.  All four sub-scores and the combination are
// rounded to 2 decimal places.  If no hazard produced a score, every
// sub-score is 0.
func EstimateConfidence(
	results HazardResults,
	configs HazardConfigSet,
	reliability SourceReliability,
	sourcesByID map[string]NormalizedSource,
	asOf time.Time,
) DataQualitySummary {
	var confidenceSum float64
	confidenceCount := 0
	scoredHazards := 0
	usedSourceIDs := make(map[string]struct{})

	for _, result := range results {
		if result.Score == nil {
			continue
		}
		scoredHazards++
		if result.Confidence > 0 {
			confidenceSum += result.Confidence
			confidenceCount++
		}
		for _, contribution := range result.Sources {
			usedSourceIDs[contribution.SourceID] = struct{}{}
		}
	}

	if scoredHazards == 0 {
		return DataQualitySummary{}
	}

	crossValidation := 0.0
	if confidenceCount > 0 {
		crossValidation = confidenceSum / float64(confidenceCount)
	}

	completeness := 0.0
	if len(configs) > 0 {
		completeness = float64(scoredHazards) / float64(len(configs))
	}

	var reliabilitySum, recencySum float64
	for id := range usedSourceIDs {
		reliabilitySum += reliability.Reliability(id)
		if src, known := sourcesByID[id]; known {
			recencySum += RecencyWeight(src.LastUpdated, asOf)
		} else {
			recencySum += recencyUnknownWeight
		}
	}
	avgReliability := 0.0
	avgRecency := 0.0
	if n := float64(len(usedSourceIDs)); n > 0 {
		avgReliability = reliabilitySum / n
		avgRecency = recencySum / n
	}

	overall := crossValidation*confidenceWeightCrossValidation +
		completeness*confidenceWeightCompleteness +
		avgReliability*confidenceWeightReliability +
		avgRecency*confidenceWeightRecency

	return DataQualitySummary{
		OverallConfidence: round2(clampUnit(overall)),
		Completeness:      round2(completeness),
		Reliability:       round2(avgReliability),
		Recency:           round2(avgRecency),
	}
}
