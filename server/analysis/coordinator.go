package analysis

import (
	"context"

	"github.com/mattermost/mattermost/server/public/pluginapi"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

const (
	// PatternWindow bounds pattern analysis input to the most recent
	// incidents by feed order, keeping prompt size and cost bounded.
	PatternWindow = 20

	// SummaryUnavailable is the placeholder returned when summarization
	// fails. The summary is advisory, not load-bearing, so failures
	// degrade instead of propagating.
	SummaryUnavailable = "Summary unavailable."
)

// AnalysisCache is the durable cache the coordinator reads through and
// writes back to.
type AnalysisCache interface {
	GetAnalysis(incidentID string) (*incident.AnalysisResult, error)
	PutAnalysis(incidentID string, result incident.AnalysisResult) error
}

// Coordinator fronts the rate-limited external analysis provider with
// cache-first reads and a single global throttle queue. At most one provider
// call is in flight process-wide, regardless of which operation submitted it.
type Coordinator struct {
	log      pluginapi.LogService
	provider Provider
	cache    AnalysisCache
	queue    *Queue
}

// NewCoordinator creates a coordinator. All request types share the one
// queue passed here.
func NewCoordinator(log pluginapi.LogService, provider Provider, cache AnalysisCache, queue *Queue) *Coordinator {
	return &Coordinator{
		log:      log,
		provider: provider,
		cache:    cache,
		queue:    queue,
	}
}

// ComprehensiveAnalysis returns the tactical analysis for an incident,
// serving a fresh cached copy when one exists and otherwise going through
// the throttle queue to the provider. Successful results are written back
// to the cache keyed by incident ID.
func (c *Coordinator) ComprehensiveAnalysis(ctx context.Context, inc incident.Incident) (*incident.AnalysisResult, error) {
	cached, err := c.cache.GetAnalysis(inc.ID)
	if err != nil {
		// Treat an unavailable store as an always-empty cache.
		c.log.Debug("Analysis cache lookup failed", "incidentId", inc.ID, "error", err.Error())
	} else if cached != nil {
		c.log.Debug("Analysis cache hit", "incidentId", inc.ID)
		return cached, nil
	}

	c.log.Debug("Analysis cache miss, calling provider", "incidentId", inc.ID)

	value, err := c.queue.Do(ctx, func(ctx context.Context) (any, error) {
		return c.provider.Comprehensive(ctx, inc)
	})
	if err != nil {
		return nil, err
	}
	result := value.(*incident.AnalysisResult)

	if err := c.cache.PutAnalysis(inc.ID, *result); err != nil {
		c.log.Warn("Failed to cache analysis result", "incidentId", inc.ID, "error", err.Error())
	}

	return result, nil
}

// PatternAnalysis computes a trend analysis over the most recent incidents.
// Input is bounded to PatternWindow entries in feed order. Results reflect a
// fast-changing global snapshot and are never persisted to the durable
// cache; every call recomputes.
func (c *Coordinator) PatternAnalysis(ctx context.Context, incidents []incident.Incident) (*incident.PatternAnalysisResult, error) {
	window := incidents
	if len(window) > PatternWindow {
		window = window[:PatternWindow]
	}

	value, err := c.queue.Do(ctx, func(ctx context.Context) (any, error) {
		return c.provider.Pattern(ctx, window)
	})
	if err != nil {
		return nil, err
	}

	return value.(*incident.PatternAnalysisResult), nil
}

// Recommend asks the provider which units to dispatch. Unit availability is
// a point-in-time fact, so recommendations are never cached.
func (c *Coordinator) Recommend(ctx context.Context, inc incident.Incident, available []incident.EmergencyService) (*incident.DispatchRecommendation, error) {
	value, err := c.queue.Do(ctx, func(ctx context.Context) (any, error) {
		return c.provider.Recommend(ctx, inc, available)
	})
	if err != nil {
		return nil, err
	}

	return value.(*incident.DispatchRecommendation), nil
}

// Summarize produces a one-sentence summary for the feed. Any failure
// degrades to a fixed placeholder rather than an error.
func (c *Coordinator) Summarize(ctx context.Context, inc incident.Incident) string {
	value, err := c.queue.Do(ctx, func(ctx context.Context) (any, error) {
		return c.provider.Summarize(ctx, inc)
	})
	if err != nil {
		c.log.Warn("Summarization failed", "incidentId", inc.ID, "error", err.Error())
		return SummaryUnavailable
	}

	return value.(string)
}
