package prometheus

// ServiceMetrics adapts AppMetrics to the name-based metrics port of the
// assessment service.  Names the service does not emit are ignored.
type ServiceMetrics struct {
	app *AppMetrics
}

func NewServiceMetrics(app *AppMetrics) *ServiceMetrics {
	return &ServiceMetrics{app: app}
}

func (m *ServiceMetrics) IncCounter(name string, labels map[string]string) {
	switch name {
	case "assessment_aggregations_total":
		m.app.AggregationsTotal.WithLabelValues(labelOr(labels, "status", "unknown")).Inc()
	case "assessment_cache_hits_total":
		m.app.CacheHitsTotal.WithLabelValues().Inc()
	case "assessment_cache_misses_total":
		m.app.CacheMissesTotal.WithLabelValues().Inc()
	case "hazard_scores_total":
		m.app.HazardScoresTotal.WithLabelValues(
			labelOr(labels, "hazard", "unknown"),
			labelOr(labels, "scored", "unknown"),
		).Inc()
	case "provider_fetch_total":
		m.app.ProviderFetchTotal.WithLabelValues(
			labelOr(labels, "source", "unknown"),
			labelOr(labels, "status", "unknown"),
		).Inc()
	}
}

func (m *ServiceMetrics) ObserveHistogram(name string, value float64, labels map[string]string) {
	switch name {
	case "assessment_duration_seconds":
		m.app.AssessmentDuration.WithLabelValues().Observe(value)
	case "assessment_overall_confidence":
		m.app.OverallConfidence.WithLabelValues().Observe(value)
	case "provider_fetch_duration_seconds":
		m.app.ProviderFetchDuration.WithLabelValues(
			labelOr(labels, "source", "unknown"),
		).Observe(value)
	}
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}
