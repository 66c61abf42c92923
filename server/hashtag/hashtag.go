package hashtag

import (
	"strings"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

// Generate creates the hashtag line appended to an incident notification
// post.
//
// Order of hashtags:
// 1. Severity (#Critical, #High, #Medium, #Low)
// 2. Incident type (#Fire, #Medical, #Police, #Hazmat, #Traffic)
// 3. Location (area, then country when the address names one)
//
// Returns a formatted string (e.g., "🏷️ #Critical, #Fire, #NewDelhi, #India")
func Generate(inc incident.Incident) string {
	var allTags []string

	allTags = append(allTags, severityTag(inc.Severity))
	allTags = append(allTags, typeTag(inc.Type))

	if inc.Address != "" {
		allTags = append(allTags, extractLocationTags(inc.Address)...)
	}

	uniqueTags := deduplicateTags(allTags)

	return formatHashtagText(uniqueTags)
}

// deduplicateTags removes duplicate tags (case-insensitive) while preserving order.
func deduplicateTags(tags []string) []string {
	seen := make(map[string]bool)
	var uniqueTags []string

	for _, tag := range tags {
		tagLower := strings.ToLower(tag)
		if !seen[tagLower] {
			uniqueTags = append(uniqueTags, tag)
			seen[tagLower] = true
		}
	}

	return uniqueTags
}

// formatHashtagText formats hashtags as comma-separated text with emoji prefix.
func formatHashtagText(tags []string) string {
	if len(tags) == 0 {
		return ""
	}

	return "🏷️ " + strings.Join(tags, ", ")
}

// camelCase converts text to CamelCase by capitalizing first letter of each word
// and removing spaces.
func camelCase(text string) string {
	words := strings.Fields(text)
	var result strings.Builder

	for _, word := range words {
		if len(word) > 0 {
			result.WriteString(strings.ToUpper(word[:1]))
			if len(word) > 1 {
				result.WriteString(word[1:])
			}
		}
	}

	return result.String()
}
