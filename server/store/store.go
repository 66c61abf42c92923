package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mattermost/mattermost/server/public/plugin"
	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

const (
	// incidentKeyPrefix scopes the durable incident mirror
	incidentKeyPrefix = "crisis_incident_"

	// analysisKeyPrefix scopes cached AI analysis responses, keyed by incident ID
	analysisKeyPrefix = "crisis_analysis_"

	// patternKey is the fixed singleton key for the pattern analysis collection
	patternKey = "crisis_pattern_latest"

	// DefaultRetention is how long cached entries stay valid. Lookups treat
	// older entries as absent and the open-time sweep deletes them.
	DefaultRetention = 24 * time.Hour

	// kvListPerPage is the page size used when scanning KV keys
	kvListPerPage = 100
)

// ErrUnavailable is returned by every accessor when the store was constructed
// without a working KV backend. Callers treat the store as an always-empty,
// always-failing cache.
var ErrUnavailable = errors.New("durable store unavailable")

// AnalysisEntry wraps a cached analysis result with its freshness timestamp.
type AnalysisEntry struct {
	Key      string                  `json:"key"`
	Data     incident.AnalysisResult `json:"data"`
	StoredAt time.Time               `json:"storedAt"`
}

// PatternEntry wraps a stored pattern analysis with its freshness timestamp.
type PatternEntry struct {
	Key      string                         `json:"key"`
	Data     incident.PatternAnalysisResult `json:"data"`
	StoredAt time.Time                      `json:"storedAt"`
}

// Stats summarizes cache occupancy for the cache statistics endpoint.
type Stats struct {
	Incidents       int       `json:"incidents"`
	AnalysisEntries int       `json:"analysisEntries"`
	OldestAnalysis  time.Time `json:"oldestAnalysis,omitzero"`
}

// Store is the durable local mirror for incidents and derived analysis
// results, backed by the plugin KV store. Writes are idempotent overwrites
// by key. The store is not the source of truth for incidents; the Crisis
// State Store owns the in-memory copy.
type Store struct {
	api       plugin.API
	log       pluginapi.LogService
	retention time.Duration
	now       func() time.Time
}

// New creates a store and runs the one-time pruning sweep. A nil API yields
// a permanently-degraded store whose accessors return ErrUnavailable rather
// than panicking, per the configuration-absence error taxonomy.
func New(api plugin.API, log pluginapi.LogService, retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}

	s := &Store{
		api:       api,
		log:       log,
		retention: retention,
		now:       time.Now,
	}

	if api == nil {
		log.Warn("Durable store has no KV backend, operating in degraded mode")
		return s
	}

	s.prune()
	return s
}

// PutIncidents writes the incident snapshot through to the mirror.
// Each write is an idempotent overwrite by incident ID.
func (s *Store) PutIncidents(incidents []incident.Incident) error {
	if s.api == nil {
		return ErrUnavailable
	}

	for _, inc := range incidents {
		data, err := json.Marshal(inc)
		if err != nil {
			return fmt.Errorf("failed to marshal incident %s: %w", inc.ID, err)
		}
		if appErr := s.api.KVSet(incidentKeyPrefix+inc.ID, data); appErr != nil {
			return fmt.Errorf("failed to store incident %s: %w", inc.ID, appErr)
		}
	}

	return nil
}

// GetIncidents returns all incidents currently in the mirror, in no
// particular order.
func (s *Store) GetIncidents() ([]incident.Incident, error) {
	if s.api == nil {
		return nil, ErrUnavailable
	}

	keys, err := s.listKeys(incidentKeyPrefix)
	if err != nil {
		return nil, err
	}

	incidents := make([]incident.Incident, 0, len(keys))
	for _, key := range keys {
		data, appErr := s.api.KVGet(key)
		if appErr != nil {
			return nil, fmt.Errorf("failed to read incident %s: %w", key, appErr)
		}
		if data == nil {
			continue
		}

		var inc incident.Incident
		if err := json.Unmarshal(data, &inc); err != nil {
			// Skip corrupt entries rather than failing the whole read;
			// the mirror is reconstructible from the next snapshot.
			s.log.Warn("Skipping corrupt incident entry", "key", key, "error", err.Error())
			continue
		}
		incidents = append(incidents, inc)
	}

	return incidents, nil
}

// PutAnalysis caches an analysis result for an incident with StoredAt = now.
func (s *Store) PutAnalysis(incidentID string, result incident.AnalysisResult) error {
	if s.api == nil {
		return ErrUnavailable
	}

	entry := AnalysisEntry{
		Key:      incidentID,
		Data:     result,
		StoredAt: s.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis entry for %s: %w", incidentID, err)
	}

	if appErr := s.api.KVSet(analysisKeyPrefix+incidentID, data); appErr != nil {
		return fmt.Errorf("failed to store analysis for %s: %w", incidentID, appErr)
	}

	return nil
}

// GetAnalysis returns the cached analysis for an incident if one exists and
// is still within the retention window. Stale entries are reported as
// absent; the open-time sweep deletes them eventually.
func (s *Store) GetAnalysis(incidentID string) (*incident.AnalysisResult, error) {
	if s.api == nil {
		return nil, ErrUnavailable
	}

	data, appErr := s.api.KVGet(analysisKeyPrefix + incidentID)
	if appErr != nil {
		return nil, fmt.Errorf("failed to read analysis for %s: %w", incidentID, appErr)
	}
	if data == nil {
		return nil, nil
	}

	var entry AnalysisEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis entry for %s: %w", incidentID, err)
	}

	if s.now().Sub(entry.StoredAt) >= s.retention {
		return nil, nil
	}

	result := entry.Data
	return &result, nil
}

// PutPattern stores a pattern analysis under the fixed singleton key.
// The analysis coordinator never writes this collection (pattern results are
// always recomputed); it exists for the clear/stats surface and callers that
// want a last-known snapshot.
func (s *Store) PutPattern(result incident.PatternAnalysisResult) error {
	if s.api == nil {
		return ErrUnavailable
	}

	entry := PatternEntry{
		Key:      patternKey,
		Data:     result,
		StoredAt: s.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal pattern entry: %w", err)
	}

	if appErr := s.api.KVSet(patternKey, data); appErr != nil {
		return fmt.Errorf("failed to store pattern analysis: %w", appErr)
	}

	return nil
}

// GetPattern returns the stored pattern analysis if present and fresh.
func (s *Store) GetPattern() (*incident.PatternAnalysisResult, error) {
	if s.api == nil {
		return nil, ErrUnavailable
	}

	data, appErr := s.api.KVGet(patternKey)
	if appErr != nil {
		return nil, fmt.Errorf("failed to read pattern analysis: %w", appErr)
	}
	if data == nil {
		return nil, nil
	}

	var entry PatternEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pattern entry: %w", err)
	}

	if s.now().Sub(entry.StoredAt) >= s.retention {
		return nil, nil
	}

	result := entry.Data
	return &result, nil
}

// Stats reports cache occupancy across the collections.
func (s *Store) Stats() (Stats, error) {
	if s.api == nil {
		return Stats{}, ErrUnavailable
	}

	stats := Stats{}

	incidentKeys, err := s.listKeys(incidentKeyPrefix)
	if err != nil {
		return Stats{}, err
	}
	stats.Incidents = len(incidentKeys)

	analysisKeys, err := s.listKeys(analysisKeyPrefix)
	if err != nil {
		return Stats{}, err
	}
	stats.AnalysisEntries = len(analysisKeys)

	for _, key := range analysisKeys {
		data, appErr := s.api.KVGet(key)
		if appErr != nil || data == nil {
			continue
		}
		var entry AnalysisEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if stats.OldestAnalysis.IsZero() || entry.StoredAt.Before(stats.OldestAnalysis) {
			stats.OldestAnalysis = entry.StoredAt
		}
	}

	return stats, nil
}

// Clear removes every entry across all three collections.
func (s *Store) Clear() error {
	if s.api == nil {
		return ErrUnavailable
	}

	for _, prefix := range []string{incidentKeyPrefix, analysisKeyPrefix} {
		keys, err := s.listKeys(prefix)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if appErr := s.api.KVDelete(key); appErr != nil {
				return fmt.Errorf("failed to delete key %s: %w", key, appErr)
			}
		}
	}

	if appErr := s.api.KVDelete(patternKey); appErr != nil {
		return fmt.Errorf("failed to delete pattern analysis: %w", appErr)
	}

	return nil
}

// prune deletes analysis entries whose StoredAt, and incidents whose own
// event timestamp, fall outside the retention window. It runs once per store
// lifetime at open time and does not coordinate with concurrent reads; a
// read racing the sweep may see an entry either side of deletion, which is
// acceptable because entries are idempotently reconstructible.
func (s *Store) prune() {
	cutoff := s.now().Add(-s.retention)
	removed := 0

	analysisKeys, err := s.listKeys(analysisKeyPrefix)
	if err != nil {
		s.log.Warn("Pruning sweep could not list analysis entries", "error", err.Error())
		return
	}
	for _, key := range analysisKeys {
		data, appErr := s.api.KVGet(key)
		if appErr != nil || data == nil {
			continue
		}
		var entry AnalysisEntry
		if err := json.Unmarshal(data, &entry); err != nil || entry.StoredAt.Before(cutoff) {
			if appErr := s.api.KVDelete(key); appErr != nil {
				s.log.Warn("Failed to prune analysis entry", "key", key, "error", appErr.Error())
				continue
			}
			removed++
		}
	}

	incidentKeys, err := s.listKeys(incidentKeyPrefix)
	if err != nil {
		s.log.Warn("Pruning sweep could not list incidents", "error", err.Error())
		return
	}
	for _, key := range incidentKeys {
		data, appErr := s.api.KVGet(key)
		if appErr != nil || data == nil {
			continue
		}
		var inc incident.Incident
		if err := json.Unmarshal(data, &inc); err != nil {
			continue
		}
		eventTime, err := time.Parse(time.RFC3339, inc.Timestamp)
		if err != nil || !eventTime.Before(cutoff) {
			continue
		}
		if appErr := s.api.KVDelete(key); appErr != nil {
			s.log.Warn("Failed to prune incident", "key", key, "error", appErr.Error())
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info("Pruning sweep removed expired entries", "removed", removed)
	}
}

// listKeys scans the KV store and returns every key carrying the prefix.
func (s *Store) listKeys(prefix string) ([]string, error) {
	var matched []string

	for page := 0; ; page++ {
		keys, appErr := s.api.KVList(page, kvListPerPage)
		if appErr != nil {
			return nil, fmt.Errorf("failed to list KV keys: %w", appErr)
		}
		if len(keys) == 0 {
			break
		}
		for _, key := range keys {
			if strings.HasPrefix(key, prefix) {
				matched = append(matched, key)
			}
		}
		if len(keys) < kvListPerPage {
			break
		}
	}

	return matched, nil
}
