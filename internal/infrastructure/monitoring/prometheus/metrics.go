package prometheus

// AppMetrics holds the metrics exposed by the service.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Assessment engine
	AggregationsTotal  CounterVec
	AssessmentDuration HistogramVec
	HazardScoresTotal  CounterVec
	OverallConfidence  HistogramVec
	CacheHitsTotal     CounterVec
	CacheMissesTotal   CounterVec

	// Provider ingest
	ProviderFetchTotal    CounterVec
	ProviderFetchDuration HistogramVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultFetchDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultConfidenceBuckets    = []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1}
)

// NewAppMetrics registers every application metric on the collector.
func NewAppMetrics(c MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal: c.RegisterCounter("http_requests_total",
			"Total HTTP requests processed, by method, path and status.",
			"method", "path", "status"),
		HTTPRequestDuration: c.RegisterHistogram("http_request_duration_seconds",
			"HTTP request latency in seconds.",
			DefaultHTTPDurationBuckets, "method", "path"),
		HTTPActiveRequests: c.RegisterGauge("http_active_requests",
			"In-flight HTTP requests."),

		AggregationsTotal: c.RegisterCounter("assessment_aggregations_total",
			"Aggregation calls, by terminal status.",
			"status"),
		AssessmentDuration: c.RegisterHistogram("assessment_duration_seconds",
			"Wall-clock time of one aggregation.",
			nil),
		HazardScoresTotal: c.RegisterCounter("hazard_scores_total",
			"Per-hazard scoring outcomes, by hazard and whether a score was produced.",
			"hazard", "scored"),
		OverallConfidence: c.RegisterHistogram("assessment_overall_confidence",
			"Distribution of overall confidence across assessments.",
			DefaultConfidenceBuckets),
		CacheHitsTotal: c.RegisterCounter("assessment_cache_hits_total",
			"Assessment reads served from cache."),
		CacheMissesTotal: c.RegisterCounter("assessment_cache_misses_total",
			"Assessment reads that fell through to the repository."),

		ProviderFetchTotal: c.RegisterCounter("provider_fetch_total",
			"Provider fetch attempts, by source and status.",
			"source", "status"),
		ProviderFetchDuration: c.RegisterHistogram("provider_fetch_duration_seconds",
			"Latency of one provider fetch.",
			DefaultFetchDurationBuckets, "source"),
	}
}
