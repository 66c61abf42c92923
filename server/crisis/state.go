package crisis

import (
	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

// State is the single consistent view merging reconciled incidents, service
// unit state, and analysis results. Only the Store mutates it.
type State struct {
	// Incidents is the current incident snapshot, feed order
	Incidents []incident.Incident `json:"incidents"`

	// Services is the emergency service unit roster
	Services []incident.EmergencyService `json:"services"`

	// Alerts is the operator-facing notice feed
	Alerts []incident.Alert `json:"alerts"`

	// SelectedIncidentID is the UI cursor; changing it has no entity side effects
	SelectedIncidentID string `json:"selectedIncidentId,omitempty"`

	// Loading is true until the first incident snapshot arrives
	Loading bool `json:"loading"`

	// Err is a short-lived human-readable error message from the most
	// recent failed operation
	Err string `json:"error,omitempty"`

	// ProcessingAnalysis is true while a comprehensive analysis is in flight
	ProcessingAnalysis bool `json:"processingAnalysis"`

	// PatternAnalysis is the latest cross-incident trend result, process
	// lifetime only
	PatternAnalysis *incident.PatternAnalysisResult `json:"patternAnalysis,omitempty"`

	// ProcessingPattern is true while a pattern analysis is in flight
	ProcessingPattern bool `json:"processingPattern"`
}

// clone returns a deep copy so readers never alias the store's state.
func (s State) clone() State {
	copied := s

	if s.Incidents != nil {
		copied.Incidents = make([]incident.Incident, len(s.Incidents))
		for i, inc := range s.Incidents {
			copied.Incidents[i] = inc.Clone()
		}
	}

	if s.Services != nil {
		copied.Services = make([]incident.EmergencyService, len(s.Services))
		copy(copied.Services, s.Services)
	}

	if s.Alerts != nil {
		copied.Alerts = make([]incident.Alert, len(s.Alerts))
		copy(copied.Alerts, s.Alerts)
	}

	if s.PatternAnalysis != nil {
		pattern := *s.PatternAnalysis
		if s.PatternAnalysis.Hotspots != nil {
			pattern.Hotspots = append([]string(nil), s.PatternAnalysis.Hotspots...)
		}
		if s.PatternAnalysis.PredictedRisks != nil {
			pattern.PredictedRisks = append([]string(nil), s.PatternAnalysis.PredictedRisks...)
		}
		copied.PatternAnalysis = &pattern
	}

	return copied
}
