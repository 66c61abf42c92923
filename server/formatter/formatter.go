package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattermost/mattermost/server/public/model"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

// Severity colors
const (
	ColorCritical = "#FF0000" // Red 🔴
	ColorHigh     = "#FF9900" // Orange 🟠
	ColorMedium   = "#FFFF00" // Yellow 🟡
	ColorLow      = "#2AA52A" // Green 🟢
	ColorUnknown  = "#808080" // Gray ⚪
)

// Severity emojis
const (
	EmojiCritical = "🔴"
	EmojiHigh     = "🟠"
	EmojiMedium   = "🟡"
	EmojiLow      = "🟢"
	EmojiUnknown  = "⚪"
)

// FormatIncident converts an incident into a Mattermost SlackAttachment with
// severity color coding and structured fields.
func FormatIncident(inc incident.Incident) *model.SlackAttachment {
	attachment := &model.SlackAttachment{}

	attachment.Text = fmt.Sprintf("#### %s", inc.Title)
	attachment.Color = getSeverityColor(inc.Severity)

	var fields []*model.SlackAttachmentField

	// 1. Event Time + Location (side by side)
	fields = append(fields,
		&model.SlackAttachmentField{
			Title: "Event Time",
			Value: formatTime(inc.Timestamp),
			Short: true,
		},
	)

	if inc.Address != "" {
		fields = append(fields, &model.SlackAttachmentField{
			Title: "Location",
			Value: formatLocation(inc),
			Short: true,
		})
	}

	// 2. Type + Status (side by side)
	fields = append(fields,
		&model.SlackAttachmentField{
			Title: "Type",
			Value: string(inc.Type),
			Short: true,
		},
		&model.SlackAttachmentField{
			Title: "Status",
			Value: string(inc.Status),
			Short: true,
		},
	)

	// 3. Description (truncate at 500 chars)
	if inc.Description != "" {
		fields = append(fields, &model.SlackAttachmentField{
			Title: "Description",
			Value: truncateText(inc.Description, 500),
			Short: false,
		})
	}

	// 4. Reporting party
	if inc.ReportingParty != "" {
		fields = append(fields, &model.SlackAttachmentField{
			Title: "Reported By",
			Value: inc.ReportingParty,
			Short: true,
		})
	}

	// 5. Assigned units (bulleted list, full width)
	if len(inc.AssignedServiceIDs) > 0 {
		fields = append(fields, &model.SlackAttachmentField{
			Title: "Assigned Units",
			Value: formatBulletList(inc.AssignedServiceIDs),
			Short: false,
		})
	}

	// 6. AI analysis summary, when one has been attached
	if inc.Analysis != nil && inc.Analysis.Summary != "" {
		fields = append(fields, &model.SlackAttachmentField{
			Title: "AI Analysis",
			Value: truncateText(inc.Analysis.Summary, 500),
			Short: false,
		})
	}

	attachment.Fields = fields

	attachment.Footer = fmt.Sprintf("Crisis Commander | %s %s", getSeverityEmoji(inc.Severity), inc.Severity)

	return attachment
}

// getSeverityColor returns the color code for a severity
func getSeverityColor(severity incident.Severity) string {
	switch severity {
	case incident.SeverityCritical:
		return ColorCritical
	case incident.SeverityHigh:
		return ColorHigh
	case incident.SeverityMedium:
		return ColorMedium
	case incident.SeverityLow:
		return ColorLow
	default:
		return ColorUnknown
	}
}

// getSeverityEmoji returns the emoji for a severity
func getSeverityEmoji(severity incident.Severity) string {
	switch severity {
	case incident.SeverityCritical:
		return EmojiCritical
	case incident.SeverityHigh:
		return EmojiHigh
	case incident.SeverityMedium:
		return EmojiMedium
	case incident.SeverityLow:
		return EmojiLow
	default:
		return EmojiUnknown
	}
}

// formatTime renders an ISO-8601 timestamp for display, falling back to the
// raw string if it does not parse
func formatTime(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

// formatLocation formats the incident address and coordinates
func formatLocation(inc incident.Incident) string {
	parts := []string{}

	if inc.Address != "" {
		parts = append(parts, inc.Address)
	}

	if inc.Location.Lat != 0 || inc.Location.Lng != 0 {
		parts = append(parts, fmt.Sprintf("(%.4f, %.4f)", inc.Location.Lat, inc.Location.Lng))
	}

	return strings.Join(parts, " ")
}

// formatBulletList formats a slice of strings as a bulleted list
func formatBulletList(items []string) string {
	bullets := make([]string, len(items))
	for i, item := range items {
		bullets[i] = fmt.Sprintf("• %s", item)
	}
	return strings.Join(bullets, "\n")
}

// truncateText truncates text to maxLen characters, adding "..." if truncated
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
