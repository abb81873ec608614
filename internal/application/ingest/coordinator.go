// Package ingest coordinates the concurrent fan-out to risk data providers.
// Provider clients themselves (HTTP details, retries, pagination) live
// outside this module; the coordinator only drives the ProviderClient port
// and degrades individual failures to missing sources.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/propshield/climarisk/internal/domain/risk"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/pkg/errors"
)

// ProviderClient fetches one provider's raw payload for a property.
type ProviderClient interface {
	// SourceID returns the provider's unique identifier, matching the
	// sourceIDs used in the hazard configuration.
	SourceID() string

	// FetchRisk returns the provider's raw payload for the property.
	FetchRisk(ctx context.Context, propertyID string) (risk.RawSourcePayload, error)
}

// MetricsCollector receives per-provider fetch counters and latencies.
type MetricsCollector interface {
	IncCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

type nopMetrics struct{}

func (nopMetrics) IncCounter(string, map[string]string) {}

func (nopMetrics) ObserveHistogram(string, float64, map[string]string) {}

// CoordinatorConfig holds fan-out tunables.
type CoordinatorConfig struct {
	// ProviderTimeout bounds each individual provider call.
	ProviderTimeout time.Duration

	// Concurrency caps simultaneous provider calls.
	Concurrency int
}

const (
	defaultProviderTimeout = 10 * time.Second
	defaultConcurrency     = 8
)

// Coordinator fans out to all registered providers and collects whatever
// payloads arrive in time.  A provider failure or timeout is never fatal for
// the request: that source is simply absent from the result, and the scoring
// engine treats absence as missing data.
type Coordinator struct {
	providers []ProviderClient
	logger    logging.Logger
	metrics   MetricsCollector
	config    CoordinatorConfig
}

// NewCoordinator constructs a Coordinator over the given providers.  A nil
// metrics collector disables instrumentation.
func NewCoordinator(providers []ProviderClient, logger logging.Logger, metrics MetricsCollector, config CoordinatorConfig) *Coordinator {
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = defaultProviderTimeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Coordinator{
		providers: providers,
		logger:    logger.Named("ingest"),
		metrics:   metrics,
		config:    config,
	}
}

// FetchAll queries every provider concurrently and returns the payloads of
// those that succeeded, keyed by sourceID.  An error is returned only when no
// provider produced a payload at all.
func (c *Coordinator) FetchAll(ctx context.Context, propertyID string) (map[string]risk.RawSourcePayload, error) {
	if propertyID == "" {
		return nil, errors.NewValidation("property_id is required")
	}

	type result struct {
		sourceID string
		payload  risk.RawSourcePayload
		err      error
	}
	results := make([]result, len(c.providers))
	sem := make(chan struct{}, c.config.Concurrency)
	var wg sync.WaitGroup

	for i, provider := range c.providers {
		wg.Add(1)
		go func(idx int, p ProviderClient) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fetchCtx, cancel := context.WithTimeout(ctx, c.config.ProviderTimeout)
			defer cancel()

			start := time.Now()
			payload, err := p.FetchRisk(fetchCtx, propertyID)
			status := "success"
			if err != nil {
				status = "error"
			}
			c.metrics.IncCounter("provider_fetch_total", map[string]string{
				"source": p.SourceID(),
				"status": status,
			})
			c.metrics.ObserveHistogram("provider_fetch_duration_seconds",
				time.Since(start).Seconds(), map[string]string{"source": p.SourceID()})
			results[idx] = result{sourceID: p.SourceID(), payload: payload, err: err}
		}(i, provider)
	}
	wg.Wait()

	payloads := make(map[string]risk.RawSourcePayload, len(c.providers))
	for _, r := range results {
		if r.err != nil {
			c.logger.Warn("provider fetch failed",
				logging.String("source_id", r.sourceID),
				logging.String("property_id", propertyID),
				logging.Err(r.err),
			)
			continue
		}
		if len(r.payload) == 0 {
			continue
		}
		payloads[r.sourceID] = r.payload
	}

	if len(payloads) == 0 {
		return nil, errors.New(errors.ErrCodeProviderFetchFailed,
			"no provider returned data for property "+propertyID)
	}
	return payloads, nil
}
