package crisis

import (
	"context"
	"sync"

	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

// Analyzer is the analysis request coordinator as the state store sees it.
type Analyzer interface {
	ComprehensiveAnalysis(ctx context.Context, inc incident.Incident) (*incident.AnalysisResult, error)
	PatternAnalysis(ctx context.Context, incidents []incident.Incident) (*incident.PatternAnalysisResult, error)
	Recommend(ctx context.Context, inc incident.Incident, available []incident.EmergencyService) (*incident.DispatchRecommendation, error)
	Summarize(ctx context.Context, inc incident.Incident) string
}

// ErrIncidentNotFound is returned when an operation names an incident id
// that is not in the current snapshot.
var ErrIncidentNotFound = errors.New("incident not found")

// Store is the single-writer reducer over the crisis state. All mutation
// happens under one lock; provider calls run outside it so a slow external
// call never blocks readers or the feed sync path.
type Store struct {
	log      pluginapi.LogService
	analyzer Analyzer

	mu    sync.Mutex
	state State
}

// NewStore creates a state store preloaded with the static service roster
// and alert notices. Loading stays true until the first incident snapshot.
func NewStore(log pluginapi.LogService, analyzer Analyzer) *Store {
	return &Store{
		log:      log,
		analyzer: analyzer,
		state: State{
			Incidents: []incident.Incident{},
			Services:  incident.SeedServices(),
			Alerts:    incident.SeedAlerts(),
			Loading:   true,
		},
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Incident returns a copy of the incident with the given id.
func (s *Store) Incident(id string) (incident.Incident, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inc := range s.state.Incidents {
		if inc.ID == id {
			return inc.Clone(), true
		}
	}
	return incident.Incident{}, false
}

// SyncIncidents replaces the incident list wholesale; the reconciler is
// authoritative for what exists. Analysis results attached in memory this
// session are re-merged by id, unless the incoming record carries its own.
func (s *Store) SyncIncidents(incidents []incident.Incident) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attached := make(map[string]*incident.AnalysisResult, len(s.state.Incidents))
	for _, inc := range s.state.Incidents {
		if inc.Analysis != nil {
			attached[inc.ID] = inc.Analysis
		}
	}

	replaced := make([]incident.Incident, len(incidents))
	for i, inc := range incidents {
		merged := inc.Clone()
		if merged.Analysis == nil {
			merged.Analysis = attached[merged.ID]
		}
		replaced[i] = merged
	}

	s.state.Incidents = replaced
	s.state.Loading = false
}

// SelectIncident moves the UI cursor. No entity side effects.
func (s *Store) SelectIncident(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedIncidentID = id
}

// RunAnalysis requests a comprehensive analysis for the incident and merges
// the result onto the matching record. The processing flag always clears,
// success or failure; a failure leaves a short human-readable error message
// instead of a stuck loading state.
func (s *Store) RunAnalysis(ctx context.Context, incidentID string) (*incident.AnalysisResult, error) {
	s.mu.Lock()
	var target *incident.Incident
	for i := range s.state.Incidents {
		if s.state.Incidents[i].ID == incidentID {
			inc := s.state.Incidents[i].Clone()
			target = &inc
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return nil, errors.Wrapf(ErrIncidentNotFound, "id %s", incidentID)
	}
	s.state.ProcessingAnalysis = true
	s.mu.Unlock()

	result, err := s.analyzer.ComprehensiveAnalysis(ctx, *target)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ProcessingAnalysis = false

	if err != nil {
		s.log.Error("Incident analysis failed", "incidentId", incidentID, "error", err.Error())
		s.state.Err = "AI analysis failed"
		return nil, err
	}

	s.state.Err = ""
	for i := range s.state.Incidents {
		if s.state.Incidents[i].ID == incidentID {
			analysis := result.Clone()
			s.state.Incidents[i].Analysis = &analysis
			break
		}
	}

	return result, nil
}

// RunPatternAnalysis computes a trend analysis over the current incident
// snapshot. With no incidents it is a no-op.
func (s *Store) RunPatternAnalysis(ctx context.Context) (*incident.PatternAnalysisResult, error) {
	s.mu.Lock()
	if len(s.state.Incidents) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	window := make([]incident.Incident, len(s.state.Incidents))
	for i, inc := range s.state.Incidents {
		window[i] = inc.Clone()
	}
	s.state.ProcessingPattern = true
	s.mu.Unlock()

	result, err := s.analyzer.PatternAnalysis(ctx, window)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ProcessingPattern = false

	if err != nil {
		s.log.Error("Pattern analysis failed", "error", err.Error())
		s.state.Err = "Pattern analysis failed"
		return nil, err
	}

	s.state.Err = ""
	s.state.PatternAnalysis = result

	return result, nil
}

// AssignService dispatches a unit to an incident: the incident's status
// becomes DISPATCHED and gains the unit id; the unit becomes BUSY and points
// back at the incident. Both halves change together under the lock or not at
// all; unknown ids make the whole operation a silent no-op.
func (s *Store) AssignService(incidentID, serviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	incidentIdx := -1
	for i := range s.state.Incidents {
		if s.state.Incidents[i].ID == incidentID {
			incidentIdx = i
			break
		}
	}

	serviceIdx := -1
	for i := range s.state.Services {
		if s.state.Services[i].ID == serviceID {
			serviceIdx = i
			break
		}
	}

	if incidentIdx < 0 || serviceIdx < 0 {
		s.log.Debug("Ignoring assignment with unknown id", "incidentId", incidentID, "serviceId", serviceID)
		return
	}

	inc := &s.state.Incidents[incidentIdx]
	inc.Status = incident.StatusDispatched

	assigned := false
	for _, id := range inc.AssignedServiceIDs {
		if id == serviceID {
			assigned = true
			break
		}
	}
	if !assigned {
		inc.AssignedServiceIDs = append(inc.AssignedServiceIDs, serviceID)
	}

	svc := &s.state.Services[serviceIdx]
	svc.Status = incident.ServiceBusy
	svc.AssignedIncidentID = incidentID
}

// Recommend asks for a dispatch recommendation using the currently
// available units. Recommendations are point-in-time and never cached.
func (s *Store) Recommend(ctx context.Context, incidentID string) (*incident.DispatchRecommendation, error) {
	s.mu.Lock()
	var target *incident.Incident
	for i := range s.state.Incidents {
		if s.state.Incidents[i].ID == incidentID {
			inc := s.state.Incidents[i].Clone()
			target = &inc
			break
		}
	}
	available := make([]incident.EmergencyService, 0, len(s.state.Services))
	for _, svc := range s.state.Services {
		if svc.Status == incident.ServiceAvailable {
			available = append(available, svc)
		}
	}
	s.mu.Unlock()

	if target == nil {
		return nil, errors.Wrapf(ErrIncidentNotFound, "id %s", incidentID)
	}

	return s.analyzer.Recommend(ctx, *target, available)
}

// Summarize returns a one-sentence summary of the incident, degrading to
// the analyzer's placeholder on any failure.
func (s *Store) Summarize(ctx context.Context, incidentID string) (string, error) {
	inc, ok := s.Incident(incidentID)
	if !ok {
		return "", errors.Wrapf(ErrIncidentNotFound, "id %s", incidentID)
	}

	return s.analyzer.Summarize(ctx, inc), nil
}
