package incident

// Type is the primary category of an incident or a unit's capability.
type Type string

// Incident types
const (
	TypeFire    Type = "FIRE"
	TypeMedical Type = "MEDICAL"
	TypePolice  Type = "POLICE"
	TypeHazmat  Type = "HAZMAT"
	TypeTraffic Type = "TRAFFIC"
)

// Status is the lifecycle state of an incident.
// The expected progression is NEW -> DISPATCHED -> ON_SCENE -> RESOLVED,
// but no transition is rejected for arriving out of order.
type Status string

// Incident statuses
const (
	StatusNew        Status = "NEW"
	StatusDispatched Status = "DISPATCHED"
	StatusOnScene    Status = "ON_SCENE"
	StatusResolved   Status = "RESOLVED"
)

// Severity indicates how serious an incident is.
type Severity string

// Incident severities
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// ServiceStatus is the availability state of an emergency service unit.
type ServiceStatus string

// Service statuses
const (
	ServiceAvailable ServiceStatus = "AVAILABLE"
	ServiceBusy      ServiceStatus = "BUSY"
	ServiceOffline   ServiceStatus = "OFFLINE"
)

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Incident is a reported emergency event tracked through its lifecycle.
// The Crisis State Store owns the in-memory copy; the durable store holds
// an eventually-consistent mirror.
type Incident struct {
	// ID is the stable identifier assigned by the feed
	ID string `json:"id"`

	// Title is a short human-readable headline
	Title string `json:"title"`

	// Description is the free-text incident report
	Description string `json:"description"`

	// Type is the primary incident category
	Type Type `json:"type"`

	// Status is the current lifecycle state
	Status Status `json:"status"`

	// Severity is the assessed seriousness of the incident
	Severity Severity `json:"severity"`

	// Location is the geographic position of the incident
	Location Coordinates `json:"location"`

	// Address is the human-readable location
	Address string `json:"address"`

	// Timestamp is the event time as an ISO-8601 (RFC 3339) string,
	// normalized from the feed's native millisecond representation
	Timestamp string `json:"timestamp"`

	// ReportingParty identifies who reported the incident
	ReportingParty string `json:"reportingParty"`

	// AssignedServiceIDs lists the units dispatched to this incident
	AssignedServiceIDs []string `json:"assignedServiceIds"`

	// Analysis is the AI-generated tactical analysis, if one has been run
	Analysis *AnalysisResult `json:"aiAnalysis,omitempty"`
}

// Clone returns a deep copy of the incident.
func (i Incident) Clone() Incident {
	clone := i
	if i.AssignedServiceIDs != nil {
		clone.AssignedServiceIDs = make([]string, len(i.AssignedServiceIDs))
		copy(clone.AssignedServiceIDs, i.AssignedServiceIDs)
	}
	if i.Analysis != nil {
		analysis := i.Analysis.Clone()
		clone.Analysis = &analysis
	}
	return clone
}

// EmergencyService is a dispatchable responder unit.
// Invariant: a BUSY unit always carries a non-empty AssignedIncidentID, and
// that incident's AssignedServiceIDs contains the unit's ID. Both halves are
// updated together by the assignment operation, never independently.
type EmergencyService struct {
	// ID is the stable unit identifier
	ID string `json:"id"`

	// Name is the unit's call sign, e.g. "Fire Tender 101"
	Name string `json:"name"`

	// Type is the unit's primary capability
	Type Type `json:"type"`

	// Status is the unit's availability
	Status ServiceStatus `json:"status"`

	// Location is the unit's current position
	Location Coordinates `json:"location"`

	// AssignedIncidentID is the incident this unit is working, if any
	AssignedIncidentID string `json:"assignedIncidentId,omitempty"`
}

// Alert is a short operator-facing notice related to the incident feed.
type Alert struct {
	ID                string   `json:"id"`
	Message           string   `json:"message"`
	Severity          Severity `json:"severity"`
	Timestamp         string   `json:"timestamp"`
	RelatedIncidentID string   `json:"relatedIncidentId,omitempty"`
}

// AnalysisResult is the provider-generated tactical analysis for one
// incident. It is immutable once produced; a repeat request for the same
// incident returns the cached value until the cache entry expires or is
// purged.
type AnalysisResult struct {
	// Summary is the executive summary of the incident
	Summary string `json:"summary"`

	// RecommendedUnits lists the unit types the provider recommends
	RecommendedUnits []string `json:"recommendedUnits"`

	// Hazards lists potential hazards at the scene
	Hazards []string `json:"hazards"`

	// TacticalAdvice is free-text guidance for responders
	TacticalAdvice string `json:"tacticalAdvice"`

	// EstimatedResolutionTime is the provider's resolution estimate
	EstimatedResolutionTime string `json:"estimatedResolutionTime"`
}

// Clone returns a deep copy of the analysis result.
func (a AnalysisResult) Clone() AnalysisResult {
	clone := a
	if a.RecommendedUnits != nil {
		clone.RecommendedUnits = make([]string, len(a.RecommendedUnits))
		copy(clone.RecommendedUnits, a.RecommendedUnits)
	}
	if a.Hazards != nil {
		clone.Hazards = make([]string, len(a.Hazards))
		copy(clone.Hazards, a.Hazards)
	}
	return clone
}

// PatternAnalysisResult is a cross-incident trend summary derived from a
// bounded window of recent incidents. It reflects a fast-changing global
// snapshot and is never persisted durably.
type PatternAnalysisResult struct {
	// Summary is the trend summary
	Summary string `json:"summary"`

	// Hotspots lists streets or areas with clustered activity
	Hotspots []string `json:"hotspots"`

	// PredictedRisks lists risks anticipated over the next 24 hours
	PredictedRisks []string `json:"predictedRisks"`

	// OperationalSuggestions is free-text operational guidance
	OperationalSuggestions string `json:"operationalSuggestions"`
}

// DispatchRecommendation is the provider's point-in-time unit selection for
// an incident. Unit availability changes constantly, so recommendations are
// never cached.
type DispatchRecommendation struct {
	// UnitIDs lists the specific units the provider recommends dispatching
	UnitIDs []string `json:"unitIds"`

	// Rationale explains the selection
	Rationale string `json:"rationale"`

	// Priority is the provider's urgency assessment
	Priority string `json:"priority"`
}
