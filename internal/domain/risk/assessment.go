package risk

import "time"

// OverallRisk is the headline result of an assessment.
type OverallRisk struct {
	Score      int       `json:"score"`
	Level      RiskLevel `json:"level"`
	Confidence float64   `json:"confidence"`
}

// HazardAssessment is one hazard's entry in the risk breakdown.  Only hazard
// types with at least one reporting source appear in a breakdown.
type HazardAssessment struct {
	Score       int       `json:"score"`
	Level       RiskLevel `json:"level"`
	Confidence  float64   `json:"confidence"`
	Weight      float64   `json:"weight"`
	Description string    `json:"description"`
	Color       string    `json:"color"`

	// Weather is populated only when weather context was supplied for this
	// hazard; Score then already reflects the adjustment.
	Weather *WeatherAdjustment `json:"weather,omitempty"`
}

// AssessmentMetadata carries operational metadata about one aggregation call.
type AssessmentMetadata struct {
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	SourcesUsed      int    `json:"sources_used"`
	RequestID        string `json:"request_id"`
}

// RiskAssessment is the engine's output: one normalized, confidence-scored
// assessment for a single property.  It is constructed once per aggregation
// call and never mutated after being returned; persistence and caching of the
// value belong to external collaborators.
type RiskAssessment struct {
	PropertyID     string    `json:"property_id"`
	AssessmentDate time.Time `json:"assessment_date"`

	OverallRisk OverallRisk `json:"overall_risk"`

	// RiskBreakdown holds per-hazard assessments, keyed by hazard type.
	// Hazards with no reporting source are absent.
	RiskBreakdown map[HazardType]HazardAssessment `json:"risk_breakdown"`

	DataQuality DataQualitySummary `json:"data_quality"`

	// SourceContributions records, per hazard, the sources actually used.
	SourceContributions map[HazardType][]SourceContribution `json:"source_contributions"`

	Metadata AssessmentMetadata `json:"metadata"`
}
