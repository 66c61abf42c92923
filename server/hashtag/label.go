package hashtag

import (
	"strings"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

// severityTag maps an incident severity to its hashtag.
//
// Severities arrive as upper-case enum strings ("CRITICAL") and become
// capitalized tags ("#Critical"). An empty severity falls back to "#Incident"
// so the line never starts with a bare "#".
func severityTag(severity incident.Severity) string {
	if severity == "" {
		return "#Incident"
	}
	return "#" + capitalizeFirst(string(severity))
}

// typeTag maps an incident type to its hashtag, e.g. FIRE -> #Fire.
func typeTag(incidentType incident.Type) string {
	if incidentType == "" {
		return "#Other"
	}
	return "#" + capitalizeFirst(string(incidentType))
}

// capitalizeFirst capitalizes the first letter of a word and lowers the rest.
func capitalizeFirst(word string) string {
	if len(word) == 0 {
		return ""
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
