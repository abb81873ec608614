package assessment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/propshield/climarisk/internal/domain/risk"
	"github.com/propshield/climarisk/pkg/errors"
)

var testAsOf = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type repoMock struct {
	mock.Mock
}

func (m *repoMock) Save(ctx context.Context, a *risk.RiskAssessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *repoMock) FindLatestByProperty(ctx context.Context, propertyID string) (*risk.RiskAssessment, error) {
	args := m.Called(ctx, propertyID)
	if a := args.Get(0); a != nil {
		return a.(*risk.RiskAssessment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *repoMock) FindHistory(ctx context.Context, propertyID string, limit, offset int) ([]*risk.RiskAssessment, error) {
	args := m.Called(ctx, propertyID, limit, offset)
	if h := args.Get(0); h != nil {
		return h.([]*risk.RiskAssessment), args.Error(1)
	}
	return nil, args.Error(1)
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeCacheError, "miss")
	}
	return data, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	events   []Event
	failWith error
}

func (p *recordingPublisher) PublishAssessmentEvent(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.failWith
}

func (p *recordingPublisher) eventTypes() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func newTestService(t *testing.T, repo AssessmentRepository, cache Cache, publisher EventPublisher) Service {
	t.Helper()
	svc, err := NewService(
		risk.DefaultHazardConfigs(),
		risk.DefaultSourceReliabilities(),
		risk.DefaultRiskLevelBands(),
		repo, cache, publisher, nil, nil, nil,
		ServiceConfig{},
	)
	require.NoError(t, err)
	return svc
}

func floodPayload(score, confidence float64) risk.RawSourcePayload {
	return risk.RawSourcePayload{
		"flood":        map[string]interface{}{"score": score, "confidence": confidence},
		"last_updated": testAsOf.AddDate(0, 0, -5).Format(time.RFC3339),
		"data_quality": 0.95,
	}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewService_RejectsInvalidConfig(t *testing.T) {
	_, err := NewService(nil, nil, risk.DefaultRiskLevelBands(), nil, nil, nil, nil, nil, nil, ServiceConfig{})
	assert.Error(t, err, "empty hazard configuration must abort construction")

	_, err = NewService(
		risk.DefaultHazardConfigs(),
		risk.SourceReliability{"bad": 1.5},
		risk.DefaultRiskLevelBands(),
		nil, nil, nil, nil, nil, nil, ServiceConfig{})
	assert.Error(t, err)

	_, err = NewService(
		risk.DefaultHazardConfigs(),
		risk.DefaultSourceReliabilities(),
		risk.RiskLevelBands{},
		nil, nil, nil, nil, nil, nil, ServiceConfig{})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Aggregate
// ---------------------------------------------------------------------------

func TestAggregate_SingleSource(t *testing.T) {
	repo := &repoMock{}
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	cache := newMemCache()
	publisher := &recordingPublisher{}
	svc := newTestService(t, repo, cache, publisher)

	result, err := svc.Aggregate(context.Background(), &AggregateRequest{
		PropertyID: "prop-1",
		Sources:    map[string]risk.RawSourcePayload{"FEMA_NRI": floodPayload(80, 0.9)},
		AsOf:       testAsOf,
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "prop-1", result.PropertyID)
	assert.True(t, result.AssessmentDate.Equal(testAsOf))

	flood, ok := result.RiskBreakdown[risk.HazardFlood]
	require.True(t, ok)
	assert.Equal(t, 80, flood.Score)
	assert.Equal(t, risk.LevelVeryHigh, flood.Level)
	assert.Nil(t, flood.Weather)

	assert.Equal(t, 80, result.OverallRisk.Score)
	assert.Equal(t, risk.LevelVeryHigh, result.OverallRisk.Level)
	assert.InDelta(t, 0.79, result.OverallRisk.Confidence, 0.02)

	assert.Equal(t, 1, result.Metadata.SourcesUsed)
	assert.NotEmpty(t, result.Metadata.RequestID)
	require.Len(t, result.SourceContributions[risk.HazardFlood], 1)
	assert.Equal(t, "FEMA_NRI", result.SourceContributions[risk.HazardFlood][0].SourceID)

	repo.AssertCalled(t, "Save", mock.Anything, result)
	assert.Contains(t, cache.items, "assessment:prop-1")
	assert.Equal(t, []EventType{EventAssessmentStarted, EventAssessmentCompleted}, publisher.eventTypes())
}

func TestAggregate_ValidationErrors(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	_, err := svc.Aggregate(context.Background(), &AggregateRequest{
		Sources: map[string]risk.RawSourcePayload{"FEMA_NRI": {}},
	})
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))

	_, err = svc.Aggregate(context.Background(), &AggregateRequest{PropertyID: "prop-1"})
	assert.Equal(t, errors.ErrCodeNoSourceData, errors.GetCode(err))
}

func TestAggregate_NoUsableSources(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	// A provider no hazard config references contributes nothing.
	result, err := svc.Aggregate(context.Background(), &AggregateRequest{
		PropertyID: "prop-1",
		Sources:    map[string]risk.RawSourcePayload{"unknown_vendor": floodPayload(90, 0.9)},
		AsOf:       testAsOf,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.OverallRisk.Score)
	assert.Equal(t, risk.LevelUnknown, result.OverallRisk.Level)
	assert.Empty(t, result.RiskBreakdown)
	assert.Equal(t, risk.DataQualitySummary{}, result.DataQuality)
}

func TestAggregate_WeatherAdjustment(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	result, err := svc.Aggregate(context.Background(), &AggregateRequest{
		PropertyID: "prop-1",
		Sources:    map[string]risk.RawSourcePayload{"FEMA_NRI": floodPayload(80, 0.9)},
		Weather: map[risk.HazardType]risk.WeatherAdjustmentFactors{
			risk.HazardFlood: {Combined: 0.5},
		},
		AsOf: testAsOf,
	})

	require.NoError(t, err)
	flood := result.RiskBreakdown[risk.HazardFlood]
	assert.Equal(t, 40, flood.Score)
	require.NotNil(t, flood.Weather)
	assert.Equal(t, 80, flood.Weather.BaseScore)
	assert.Equal(t, 40, flood.Weather.AdjustedScore)

	// The overall score is built from the adjusted value.
	assert.Equal(t, 40, result.OverallRisk.Score)
}

func TestAggregate_SideEffectFailuresDoNotFailCall(t *testing.T) {
	repo := &repoMock{}
	repo.On("Save", mock.Anything, mock.Anything).
		Return(errors.New(errors.ErrCodeDatabaseError, "db down"))
	publisher := &recordingPublisher{failWith: errors.New(errors.ErrCodeInternal, "broker down")}
	svc := newTestService(t, repo, nil, publisher)

	result, err := svc.Aggregate(context.Background(), &AggregateRequest{
		PropertyID: "prop-1",
		Sources:    map[string]risk.RawSourcePayload{"FEMA_NRI": floodPayload(70, 0.9)},
		AsOf:       testAsOf,
	})

	require.NoError(t, err)
	require.NotNil(t, result)
}

// scoringPanicMetrics blows up on the per-hazard counter, simulating a bug
// that surfaces in the middle of scoring.
type scoringPanicMetrics struct{}

func (scoringPanicMetrics) IncCounter(name string, _ map[string]string) {
	if name == "hazard_scores_total" {
		panic("metrics backend exploded")
	}
}

func (scoringPanicMetrics) ObserveHistogram(string, float64, map[string]string) {}

func TestAggregate_PanicRecoveredAsFailure(t *testing.T) {
	publisher := &recordingPublisher{}
	svc, err := NewService(
		risk.DefaultHazardConfigs(),
		risk.DefaultSourceReliabilities(),
		risk.DefaultRiskLevelBands(),
		nil, nil, publisher, nil, scoringPanicMetrics{}, nil,
		ServiceConfig{},
	)
	require.NoError(t, err)

	result, err := svc.Aggregate(context.Background(), &AggregateRequest{
		PropertyID: "prop-1",
		Sources:    map[string]risk.RawSourcePayload{"FEMA_NRI": floodPayload(80, 0.9)},
		AsOf:       testAsOf,
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, errors.ErrCodeAssessmentFailed, errors.GetCode(err))
	assert.Contains(t, err.Error(), "prop-1")
	assert.Contains(t, err.Error(), "request")

	snap := svc.Stats()
	assert.Equal(t, int64(1), snap.TotalAggregations)
	assert.Zero(t, snap.SuccessfulAggregations)

	require.Equal(t, []EventType{EventAssessmentStarted, EventAssessmentFailed}, publisher.eventTypes())
	assert.NotEmpty(t, publisher.events[1].Error)
	assert.Equal(t, "prop-1", publisher.events[1].PropertyID)
}

// ---------------------------------------------------------------------------
// GetAssessment
// ---------------------------------------------------------------------------

func TestGetAssessment_CacheHit(t *testing.T) {
	repo := &repoMock{}
	cache := newMemCache()
	stored := &risk.RiskAssessment{PropertyID: "prop-1", OverallRisk: risk.OverallRisk{Score: 42}}
	data, err := marshalAssessment(stored)
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), "assessment:prop-1", data, 0))

	svc := newTestService(t, repo, cache, nil)

	got, err := svc.GetAssessment(context.Background(), "prop-1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.OverallRisk.Score)
	repo.AssertNotCalled(t, "FindLatestByProperty", mock.Anything, mock.Anything)
}

func TestGetAssessment_FallsBackToRepository(t *testing.T) {
	repo := &repoMock{}
	stored := &risk.RiskAssessment{PropertyID: "prop-1", OverallRisk: risk.OverallRisk{Score: 55}}
	repo.On("FindLatestByProperty", mock.Anything, "prop-1").Return(stored, nil)
	cache := newMemCache()
	svc := newTestService(t, repo, cache, nil)

	got, err := svc.GetAssessment(context.Background(), "prop-1")
	require.NoError(t, err)
	assert.Equal(t, 55, got.OverallRisk.Score)

	// The repository result is written back to the cache.
	assert.Contains(t, cache.items, "assessment:prop-1")
}

func TestGetAssessment_NotFound(t *testing.T) {
	repo := &repoMock{}
	repo.On("FindLatestByProperty", mock.Anything, "missing").
		Return(nil, errors.New(errors.ErrCodeAssessmentNotFound, "no such assessment"))
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.GetAssessment(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestGetAssessment_EmptyPropertyID(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)
	_, err := svc.GetAssessment(context.Background(), "")
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestGetAssessment_NoRepository(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)
	_, err := svc.GetAssessment(context.Background(), "prop-1")
	assert.Equal(t, errors.ErrCodeAssessmentNotFound, errors.GetCode(err))
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func TestHistory_DelegatesWithSanitizedPaging(t *testing.T) {
	repo := &repoMock{}
	repo.On("FindHistory", mock.Anything, "prop-1", 20, 0).
		Return([]*risk.RiskAssessment{{PropertyID: "prop-1"}}, nil)
	svc := newTestService(t, repo, nil, nil)

	history, err := svc.History(context.Background(), "prop-1", -3, -1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	repo.AssertExpectations(t)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

func TestStats_TracksAggregations(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	_, err := svc.Aggregate(context.Background(), &AggregateRequest{
		PropertyID: "prop-1",
		Sources:    map[string]risk.RawSourcePayload{"FEMA_NRI": floodPayload(80, 0.9)},
		AsOf:       testAsOf,
	})
	require.NoError(t, err)

	snap := svc.Stats()
	assert.Equal(t, int64(1), snap.TotalAggregations)
	assert.Equal(t, int64(1), snap.SuccessfulAggregations)
	assert.Equal(t, 1.0, snap.SuccessRate)
	require.Len(t, snap.MostUsedSources, 1)
	assert.Equal(t, "FEMA_NRI", snap.MostUsedSources[0].SourceID)
}
