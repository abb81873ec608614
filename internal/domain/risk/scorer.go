package risk

import (
	"math"
	"time"
)

// secondaryTierDiscount is the fixed down-weighting applied to secondary
// sources before recency.  A secondary source contributes exactly half the
// weight it would contribute as primary.
const secondaryTierDiscount = 0.5

// Confidence blend for multi-source hazards: individual confidence versus
// cross-source agreement.
const (
	confidenceBlendAvg       = 0.7
	confidenceBlendAgreement = 0.3
	agreementStddevScale     = 50.0
)

// SourceContribution records one source actually used for a hazard score.
type SourceContribution struct {
	SourceID  string  `json:"source_id"`
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
	IsPrimary bool    `json:"is_primary"`
}

// HazardScore is the result of scoring one hazard type.  Score is nil when no
// source contributed: a missing hazard assessment is categorically different
// from a confirmed low-risk one, so nil is never coerced to 0.
type HazardScore struct {
	Score      *int                 `json:"score"`
	Confidence float64              `json:"confidence"`
	Sources    []SourceContribution `json:"sources"`
}

// HazardResults maps hazard types to their scoring results.
type HazardResults map[HazardType]HazardScore

// ScoreHazard computes one hazard type's score and confidence from all
// normalized sources that report it.
//
// Sources in cfg.PrimarySources carry weight reliability×recency; sources in
// cfg.SecondarySources carry reliability×0.5×recency; sources in neither set
// are ignored for this hazard.  The weight-normalized average of contributing
// scores is multiplied by the scaling factor, clamped to [0,100], and rounded
// to the nearest integer.
//
// Confidence: with one contributor, that source's own confidence; with
// several, avg×0.7 + agreement×0.3 where agreement = max(0, 1−stddev/50) —
// sources that disagree strongly pull confidence down even if each is
// individually confident.
func ScoreHazard(
	hazard HazardType,
	cfg HazardTypeConfig,
	reliability SourceReliability,
	sources []NormalizedSource,
	asOf time.Time,
) HazardScore {
	byID := make(map[string]NormalizedSource, len(sources))
	for _, src := range sources {
		byID[src.SourceID] = src
	}

	var contributions []SourceContribution
	var scores []float64
	var confidences []float64
	var weightedSum, weightSum float64

	collect := func(sourceIDs []string, primary bool) {
		for _, id := range sourceIDs {
			src, present := byID[id]
			if !present {
				continue
			}
			entry, reported := src.Risks[hazard]
			if !reported {
				continue
			}
			weight := reliability.Reliability(id) * RecencyWeight(src.LastUpdated, asOf)
			if !primary {
				weight = reliability.Reliability(id) * secondaryTierDiscount * RecencyWeight(src.LastUpdated, asOf)
			}
			if weight <= 0 {
				continue
			}
			contributions = append(contributions, SourceContribution{
				SourceID:  id,
				Score:     entry.Score,
				Weight:    round2(weight),
				IsPrimary: primary,
			})
			scores = append(scores, entry.Score)
			confidences = append(confidences, entry.Confidence)
			weightedSum += entry.Score * weight
			weightSum += weight
		}
	}

	// Configured order keeps contribution lists deterministic.
	collect(cfg.PrimarySources, true)
	collect(cfg.SecondarySources, false)

	if len(contributions) == 0 {
		return HazardScore{Score: nil, Confidence: 0, Sources: []SourceContribution{}}
	}

	raw := weightedSum / weightSum * cfg.EffectiveScalingFactor()
	score := int(math.Round(clampScore(raw)))

	confidence := confidences[0]
	if len(contributions) > 1 {
		avg := mean(confidences)
		agreement := math.Max(0, 1-stddev(scores)/agreementStddevScale)
		confidence = avg*confidenceBlendAvg + agreement*confidenceBlendAgreement
	}

	return HazardScore{
		Score:      &score,
		Confidence: round2(clampUnit(confidence)),
		Sources:    contributions,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
