// Package assessment is the application layer around the risk scoring engine:
// it orchestrates normalization, per-hazard scoring, aggregation, confidence
// estimation, and classification into a single RiskAssessment, and owns the
// running aggregation statistics and lifecycle events.
package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/propshield/climarisk/internal/domain/risk"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/pkg/errors"
)

// ---------------------------------------------------------------------------
// Ports (adapter interfaces for infrastructure)
// ---------------------------------------------------------------------------

// EventType identifies a lifecycle notification emitted by the orchestrator.
type EventType string

const (
	EventAssessmentStarted   EventType = "assessment.started"
	EventAssessmentCompleted EventType = "assessment.completed"
	EventAssessmentFailed    EventType = "assessment.failed"
)

// Event is an observability notification about one aggregation call.
type Event struct {
	Type       EventType `json:"type"`
	PropertyID string    `json:"property_id"`
	RequestID  string    `json:"request_id"`
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error,omitempty"`
}

// EventPublisher delivers lifecycle events to an external sink.  Publishing
// failures are logged, never propagated — observability must not break
// assessments.
type EventPublisher interface {
	PublishAssessmentEvent(ctx context.Context, event Event) error
}

// AssessmentRepository persists and retrieves assessment snapshots.
type AssessmentRepository interface {
	Save(ctx context.Context, a *risk.RiskAssessment) error
	FindLatestByProperty(ctx context.Context, propertyID string) (*risk.RiskAssessment, error)
	FindHistory(ctx context.Context, propertyID string, limit, offset int) ([]*risk.RiskAssessment, error)
}

// Cache is a minimal TTL cache adapter for assessment values.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PayloadArchiver stores the raw provider payload bundle for audit/replay.
type PayloadArchiver interface {
	ArchivePayloads(ctx context.Context, propertyID, requestID string, payloads map[string]risk.RawSourcePayload) error
}

// MetricsCollector records operational metrics.
type MetricsCollector interface {
	IncCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

type noopPublisher struct{}

func (noopPublisher) PublishAssessmentEvent(context.Context, Event) error { return nil }

type noopMetrics struct{}

func (noopMetrics) IncCounter(string, map[string]string)                {}
func (noopMetrics) ObserveHistogram(string, float64, map[string]string) {}

type noopArchiver struct{}

func (noopArchiver) ArchivePayloads(context.Context, string, string, map[string]risk.RawSourcePayload) error {
	return nil
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// AggregateRequest is the input to one aggregation call.
type AggregateRequest struct {
	// PropertyID identifies the property being assessed.
	PropertyID string `json:"property_id"`

	// Sources maps sourceID to that provider's raw payload, as returned by
	// the source-fetch collaborator.
	Sources map[string]risk.RawSourcePayload `json:"sources"`

	// Weather optionally supplies per-hazard weather-context multipliers.
	Weather map[risk.HazardType]risk.WeatherAdjustmentFactors `json:"weather,omitempty"`

	// AsOf anchors recency decay and the assessment date.  Zero means "now".
	// Supplying it makes a call fully reproducible.
	AsOf time.Time `json:"as_of,omitempty"`
}

// Validate checks required fields and applies defaults.
func (r *AggregateRequest) Validate() error {
	if r.PropertyID == "" {
		return errors.NewValidation("property_id is required")
	}
	if len(r.Sources) == 0 {
		return errors.New(errors.ErrCodeNoSourceData, "at least one source payload is required")
	}
	if r.AsOf.IsZero() {
		r.AsOf = time.Now().UTC()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service is the public entry point of the scoring engine.
type Service interface {
	// Aggregate builds one RiskAssessment for a property from raw per-source
	// payloads.  Partial per-hazard failures surface as nil scores inside
	// the assessment; only structural failures abort the whole call.
	Aggregate(ctx context.Context, req *AggregateRequest) (*risk.RiskAssessment, error)

	// GetAssessment returns the cached or last persisted assessment.
	GetAssessment(ctx context.Context, propertyID string) (*risk.RiskAssessment, error)

	// History returns persisted assessments for a property, newest first.
	History(ctx context.Context, propertyID string, limit, offset int) ([]*risk.RiskAssessment, error)

	// Stats returns a snapshot of the running aggregation statistics.
	Stats() StatsSnapshot
}

// ServiceConfig holds tuneable parameters.
type ServiceConfig struct {
	CacheTTL time.Duration
}

const defaultCacheTTL = time.Hour

const cacheKeyPrefix = "assessment:"

type service struct {
	hazards     risk.HazardConfigSet
	reliability risk.SourceReliability
	bands       risk.RiskLevelBands

	repo      AssessmentRepository
	cache     Cache
	publisher EventPublisher
	archiver  PayloadArchiver
	metrics   MetricsCollector
	stats     StatsCollector
	logger    logging.Logger

	// loadGroup collapses concurrent repository loads for the same property.
	loadGroup singleflight.Group

	config ServiceConfig
}

// NewService constructs the aggregation orchestrator.  The hazard
// configuration, reliability table, and risk-level bands are validated here:
// a structural configuration error aborts construction before any scoring
// can occur.  repo, cache, publisher, archiver, and metrics may be nil; noop
// implementations are substituted.
func NewService(
	hazards risk.HazardConfigSet,
	reliability risk.SourceReliability,
	bands risk.RiskLevelBands,
	repo AssessmentRepository,
	cache Cache,
	publisher EventPublisher,
	archiver PayloadArchiver,
	metrics MetricsCollector,
	logger logging.Logger,
	config ServiceConfig,
) (Service, error) {
	if err := hazards.Validate(); err != nil {
		return nil, err
	}
	if err := reliability.Validate(); err != nil {
		return nil, err
	}
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if archiver == nil {
		archiver = noopArchiver{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultCacheTTL
	}
	return &service{
		hazards:     hazards,
		reliability: reliability,
		bands:       bands,
		repo:        repo,
		cache:       cache,
		publisher:   publisher,
		archiver:    archiver,
		metrics:     metrics,
		stats:       NewStatsCollector(),
		logger:      logger.Named("assessment"),
		config:      config,
	}, nil
}

// ---------------------------------------------------------------------------
// Aggregate
// ---------------------------------------------------------------------------

func (s *service) Aggregate(ctx context.Context, req *AggregateRequest) (assessment *risk.RiskAssessment, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	requestID := uuid.NewString()
	log := s.logger.With(
		logging.String("property_id", req.PropertyID),
		logging.String("request_id", requestID),
	)

	s.publishEvent(ctx, Event{
		Type:       EventAssessmentStarted,
		PropertyID: req.PropertyID,
		RequestID:  requestID,
		Timestamp:  start,
	})

	// Per-hazard data problems are handled inside the engine as nil scores.
	// Anything that still panics is a bug; it fails the whole call, counts as
	// a failed aggregation, and reaches the caller wrapped with context.
	defer func() {
		if r := recover(); r != nil {
			s.stats.RecordFailure()
			s.metrics.IncCounter("assessment_aggregations_total", map[string]string{"status": "panic"})
			wrapped := errors.Newf(errors.ErrCodeAssessmentFailed,
				"internal error assessing property %s (request %s): %v", req.PropertyID, requestID, r)
			log.Error("aggregation panicked", logging.Any("panic", r))
			s.publishEvent(ctx, Event{
				Type:       EventAssessmentFailed,
				PropertyID: req.PropertyID,
				RequestID:  requestID,
				Timestamp:  time.Now(),
				Error:      wrapped.Error(),
			})
			assessment, err = nil, wrapped
		}
	}()

	// 1. Normalize every provider payload into the canonical record.
	sources := make([]risk.NormalizedSource, 0, len(req.Sources))
	sourcesByID := make(map[string]risk.NormalizedSource, len(req.Sources))
	for sourceID, payload := range req.Sources {
		normalized := risk.NormalizeSource(sourceID, payload, req.AsOf)
		sources = append(sources, normalized)
		sourcesByID[sourceID] = normalized
	}

	// 2. Score every configured hazard; apply weather context before the
	// overall aggregation so the headline score reflects the adjustment.
	results := make(risk.HazardResults, len(s.hazards))
	adjustments := make(map[risk.HazardType]*risk.WeatherAdjustment)
	for hazard, cfg := range s.hazards {
		result := risk.ScoreHazard(hazard, cfg, s.reliability, sources, req.AsOf)
		if result.Score != nil {
			if factors, enhanced := req.Weather[hazard]; enhanced {
				adjusted := risk.AdjustForWeather(*result.Score, factors)
				score := adjusted.AdjustedScore
				result.Score = &score
				adjustments[hazard] = &adjusted
			}
		}
		results[hazard] = result
		s.metrics.IncCounter("hazard_scores_total", map[string]string{
			"hazard": string(hazard),
			"scored": fmt.Sprintf("%t", result.Score != nil),
		})
	}

	// 3. Overall score + confidence.
	overallScore, scored := risk.AggregateOverall(results, s.hazards)
	quality := risk.EstimateConfidence(results, s.hazards, s.reliability, sourcesByID, req.AsOf)

	overallLevel := risk.LevelUnknown
	if scored {
		overallLevel = s.bands.Classify(&overallScore)
	}

	// 4. Assemble the immutable result.
	breakdown := make(map[risk.HazardType]risk.HazardAssessment)
	contributions := make(map[risk.HazardType][]risk.SourceContribution)
	usedSources := make(map[string]struct{})
	for hazard, result := range results {
		if result.Score == nil {
			continue
		}
		level := s.bands.Classify(result.Score)
		band, _ := s.bands.Band(level)
		breakdown[hazard] = risk.HazardAssessment{
			Score:       *result.Score,
			Level:       level,
			Confidence:  result.Confidence,
			Weight:      s.hazards[hazard].Weight,
			Description: band.Description,
			Color:       band.Color,
			Weather:     adjustments[hazard],
		}
		contributions[hazard] = result.Sources
		for _, c := range result.Sources {
			usedSources[c.SourceID] = struct{}{}
		}
	}

	elapsed := time.Since(start)
	assessment = &risk.RiskAssessment{
		PropertyID:     req.PropertyID,
		AssessmentDate: req.AsOf,
		OverallRisk: risk.OverallRisk{
			Score:      overallScore,
			Level:      overallLevel,
			Confidence: quality.OverallConfidence,
		},
		RiskBreakdown:       breakdown,
		DataQuality:         quality,
		SourceContributions: contributions,
		Metadata: risk.AssessmentMetadata{
			ProcessingTimeMs: elapsed.Milliseconds(),
			SourcesUsed:      len(usedSources),
			RequestID:        requestID,
		},
	}

	// 5. Side effects: stats, metrics, persistence, cache, archive, event.
	// None of these may fail the call once the assessment is built.
	sourceIDs := make([]string, 0, len(usedSources))
	for id := range usedSources {
		sourceIDs = append(sourceIDs, id)
	}
	s.stats.RecordSuccess(quality.OverallConfidence, elapsed.Milliseconds(), sourceIDs)
	s.metrics.IncCounter("assessment_aggregations_total", map[string]string{"status": "success"})
	s.metrics.ObserveHistogram("assessment_duration_seconds", elapsed.Seconds(), nil)
	s.metrics.ObserveHistogram("assessment_overall_confidence", quality.OverallConfidence, nil)

	if s.repo != nil {
		if saveErr := s.repo.Save(ctx, assessment); saveErr != nil {
			log.Error("failed to persist assessment", logging.Err(saveErr))
		}
	}
	s.cacheSet(ctx, assessment)
	if archiveErr := s.archiver.ArchivePayloads(ctx, req.PropertyID, requestID, req.Sources); archiveErr != nil {
		log.Warn("failed to archive raw payloads", logging.Err(archiveErr))
	}

	s.publishEvent(ctx, Event{
		Type:       EventAssessmentCompleted,
		PropertyID: req.PropertyID,
		RequestID:  requestID,
		Timestamp:  time.Now(),
	})

	log.Info("assessment completed",
		logging.Int("overall_score", overallScore),
		logging.String("overall_level", string(overallLevel)),
		logging.Float64("confidence", quality.OverallConfidence),
		logging.Duration("elapsed", elapsed),
	)
	return assessment, nil
}

// ---------------------------------------------------------------------------
// GetAssessment / History / Stats
// ---------------------------------------------------------------------------

func (s *service) GetAssessment(ctx context.Context, propertyID string) (*risk.RiskAssessment, error) {
	if propertyID == "" {
		return nil, errors.NewValidation("property_id is required")
	}

	if cached := s.cacheGet(ctx, propertyID); cached != nil {
		s.metrics.IncCounter("assessment_cache_hits_total", nil)
		return cached, nil
	}
	s.metrics.IncCounter("assessment_cache_misses_total", nil)

	if s.repo == nil {
		return nil, errors.New(errors.ErrCodeAssessmentNotFound,
			fmt.Sprintf("no assessment for property %s", propertyID))
	}
	v, err, _ := s.loadGroup.Do(propertyID, func() (interface{}, error) {
		a, loadErr := s.repo.FindLatestByProperty(ctx, propertyID)
		if loadErr != nil {
			if errors.IsNotFound(loadErr) {
				return nil, loadErr
			}
			return nil, errors.Wrap(loadErr, errors.ErrCodeDatabaseError, "load latest assessment")
		}
		s.cacheSet(ctx, a)
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*risk.RiskAssessment), nil
}

func (s *service) History(ctx context.Context, propertyID string, limit, offset int) ([]*risk.RiskAssessment, error) {
	if propertyID == "" {
		return nil, errors.NewValidation("property_id is required")
	}
	if s.repo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	history, err := s.repo.FindHistory(ctx, propertyID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "load assessment history")
	}
	return history, nil
}

func (s *service) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

func (s *service) publishEvent(ctx context.Context, event Event) {
	if err := s.publisher.PublishAssessmentEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish lifecycle event",
			logging.String("event_type", string(event.Type)),
			logging.Err(err),
		)
	}
}

func (s *service) cacheGet(ctx context.Context, propertyID string) *risk.RiskAssessment {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, cacheKeyPrefix+propertyID)
	if err != nil || len(data) == 0 {
		return nil
	}
	var a risk.RiskAssessment
	if unmarshalErr := unmarshalAssessment(data, &a); unmarshalErr != nil {
		s.logger.Warn("failed to decode cached assessment", logging.Err(unmarshalErr))
		return nil
	}
	return &a
}

func (s *service) cacheSet(ctx context.Context, a *risk.RiskAssessment) {
	if s.cache == nil {
		return
	}
	data, err := marshalAssessment(a)
	if err != nil {
		s.logger.Warn("failed to encode assessment for cache", logging.Err(err))
		return
	}
	if setErr := s.cache.Set(ctx, cacheKeyPrefix+a.PropertyID, data, s.config.CacheTTL); setErr != nil {
		s.logger.Warn("failed to cache assessment", logging.Err(setErr))
	}
}
