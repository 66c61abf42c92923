package feed

import (
	"encoding/json"
	"time"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

// SnapshotResponse is the body returned by the feed's incident query
// endpoint. Every response is a complete replacement snapshot, not a delta.
type SnapshotResponse struct {
	Incidents []Incident `json:"incidents"`
}

// APIError is the feed's error response body.
// Format: {"error": "...", "message": "..."}
type APIError struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err
}

// Incident is an incident record as the feed delivers it. The feed's native
// timestamp is epoch milliseconds; it is parsed to time.Time during JSON
// unmarshaling and normalized to ISO-8601 by Normalize.
type Incident struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	Type               string               `json:"type"`
	Status             string               `json:"status"`
	Severity           string               `json:"severity"`
	Location           incident.Coordinates `json:"location"`
	Address            string               `json:"address"`
	EventTime          time.Time            `json:"-"` // Parsed from timestamp milliseconds
	ReportingParty     string               `json:"reportingParty"`
	AssignedServiceIDs []string             `json:"assignedServiceIds"`
}

// UnmarshalJSON implements custom JSON unmarshaling for Incident.
// Converts the timestamp field from epoch milliseconds to time.Time.
func (f *Incident) UnmarshalJSON(data []byte) error {
	// Create type alias to avoid infinite recursion when calling json.Unmarshal
	// Without this alias, calling json.Unmarshal on Incident would invoke this method again
	type Alias Incident
	aux := &struct {
		TimestampMs int64 `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(f),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TimestampMs > 0 {
		f.EventTime = time.Unix(0, aux.TimestampMs*int64(time.Millisecond)).UTC()
	}

	return nil
}

// Normalize converts a feed incident into the canonical domain shape.
// Records without an event time get the current time, so every incident
// entering the core carries a valid ISO-8601 timestamp.
func (f Incident) Normalize() incident.Incident {
	eventTime := f.EventTime
	if eventTime.IsZero() {
		eventTime = time.Now().UTC()
	}

	status := incident.Status(f.Status)
	if status == "" {
		status = incident.StatusNew
	}

	assigned := f.AssignedServiceIDs
	if assigned == nil {
		assigned = []string{}
	}

	return incident.Incident{
		ID:                 f.ID,
		Title:              f.Title,
		Description:        f.Description,
		Type:               incident.Type(f.Type),
		Status:             status,
		Severity:           incident.Severity(f.Severity),
		Location:           f.Location,
		Address:            f.Address,
		Timestamp:          eventTime.Format(time.RFC3339),
		ReportingParty:     f.ReportingParty,
		AssignedServiceIDs: assigned,
	}
}
