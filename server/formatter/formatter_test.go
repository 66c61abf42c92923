package formatter

import (
	"strings"
	"testing"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

func TestFormatIncident_FullIncident(t *testing.T) {
	inc := incident.Incident{
		ID:          "inc-123",
		Title:       "Structure Fire at Warehouse",
		Description: "Large fire reported with visible smoke from several blocks away",
		Type:        incident.TypeFire,
		Status:      incident.StatusDispatched,
		Severity:    incident.SeverityCritical,
		Location: incident.Coordinates{
			Lat: 28.6315,
			Lng: 77.2167,
		},
		Address:            "Connaught Place, New Delhi",
		Timestamp:          "2026-08-30T14:30:00Z",
		ReportingParty:     "Security guard on site",
		AssignedServiceIDs: []string{"svc-101", "svc-103"},
		Analysis: &incident.AnalysisResult{
			Summary: "High-risk structural fire requiring multiple engine companies.",
		},
	}

	attachment := FormatIncident(inc)

	// Verify basic structure
	assert.Contains(t, attachment.Text, "Structure Fire at Warehouse")
	assert.Empty(t, attachment.Pretext)
	assert.Empty(t, attachment.Title)
	assert.Equal(t, ColorCritical, attachment.Color)
	assert.Equal(t, "Crisis Commander | 🔴 CRITICAL", attachment.Footer)

	// Verify all fields exist in correct order
	require.Len(t, attachment.Fields, 8)

	// Field 0: Event Time
	assert.Equal(t, "Event Time", attachment.Fields[0].Title)
	assert.Equal(t, "2026-08-30 14:30:00 UTC", attachment.Fields[0].Value)
	assert.Equal(t, model.SlackCompatibleBool(true), attachment.Fields[0].Short)

	// Field 1: Location
	assert.Equal(t, "Location", attachment.Fields[1].Title)
	assert.Contains(t, attachment.Fields[1].Value, "Connaught Place, New Delhi")
	assert.Contains(t, attachment.Fields[1].Value, "(28.6315, 77.2167)")
	assert.Equal(t, model.SlackCompatibleBool(true), attachment.Fields[1].Short)

	// Field 2: Type
	assert.Equal(t, "Type", attachment.Fields[2].Title)
	assert.Equal(t, "FIRE", attachment.Fields[2].Value)

	// Field 3: Status
	assert.Equal(t, "Status", attachment.Fields[3].Title)
	assert.Equal(t, "DISPATCHED", attachment.Fields[3].Value)

	// Field 4: Description
	assert.Equal(t, "Description", attachment.Fields[4].Title)
	assert.Equal(t, inc.Description, attachment.Fields[4].Value)
	assert.Equal(t, model.SlackCompatibleBool(false), attachment.Fields[4].Short)

	// Field 5: Reported By
	assert.Equal(t, "Reported By", attachment.Fields[5].Title)
	assert.Equal(t, "Security guard on site", attachment.Fields[5].Value)

	// Field 6: Assigned Units
	assert.Equal(t, "Assigned Units", attachment.Fields[6].Title)
	assert.Contains(t, attachment.Fields[6].Value, "• svc-101")
	assert.Contains(t, attachment.Fields[6].Value, "• svc-103")
	assert.Equal(t, model.SlackCompatibleBool(false), attachment.Fields[6].Short)

	// Field 7: AI Analysis (last field)
	assert.Equal(t, "AI Analysis", attachment.Fields[7].Title)
	assert.Equal(t, "High-risk structural fire requiring multiple engine companies.", attachment.Fields[7].Value)
	assert.Equal(t, model.SlackCompatibleBool(false), attachment.Fields[7].Short)
}

func TestFormatIncident_MinimalIncident(t *testing.T) {
	inc := incident.Incident{
		ID:        "inc-123",
		Title:     "Minor Traffic Stop",
		Type:      incident.TypeTraffic,
		Status:    incident.StatusNew,
		Severity:  incident.SeverityLow,
		Timestamp: "2026-08-30T14:30:00Z",
	}

	attachment := FormatIncident(inc)

	// Verify basic structure
	assert.Contains(t, attachment.Text, "Minor Traffic Stop")
	assert.Equal(t, ColorLow, attachment.Color)
	assert.Equal(t, "Crisis Commander | 🟢 LOW", attachment.Footer)

	// Only Event Time, Type and Status (no optional fields)
	require.Len(t, attachment.Fields, 3)

	assert.Equal(t, "Event Time", attachment.Fields[0].Title)
	assert.Equal(t, "Type", attachment.Fields[1].Title)
	assert.Equal(t, "Status", attachment.Fields[2].Title)
}

func TestGetSeverityColor(t *testing.T) {
	tests := []struct {
		name     string
		severity incident.Severity
		expected string
	}{
		{"Critical", incident.SeverityCritical, ColorCritical},
		{"High", incident.SeverityHigh, ColorHigh},
		{"Medium", incident.SeverityMedium, ColorMedium},
		{"Low", incident.SeverityLow, ColorLow},
		{"Unknown severity", incident.Severity("EXTREME"), ColorUnknown},
		{"Empty severity", incident.Severity(""), ColorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getSeverityColor(tt.severity)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetSeverityEmoji(t *testing.T) {
	tests := []struct {
		name     string
		severity incident.Severity
		expected string
	}{
		{"Critical", incident.SeverityCritical, EmojiCritical},
		{"High", incident.SeverityHigh, EmojiHigh},
		{"Medium", incident.SeverityMedium, EmojiMedium},
		{"Low", incident.SeverityLow, EmojiLow},
		{"Unknown severity", incident.Severity("EXTREME"), EmojiUnknown},
		{"Empty severity", incident.Severity(""), EmojiUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getSeverityEmoji(tt.severity)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormatTime(t *testing.T) {
	// RFC 3339 timestamps render as a human-readable UTC time
	assert.Equal(t, "2026-08-30 14:30:45 UTC", formatTime("2026-08-30T14:30:45Z"))

	// Offsets are normalized to UTC
	assert.Equal(t, "2026-08-30 12:30:45 UTC", formatTime("2026-08-30T14:30:45+02:00"))

	// Unparseable timestamps pass through untouched
	assert.Equal(t, "yesterday", formatTime("yesterday"))
	assert.Equal(t, "", formatTime(""))
}

func TestFormatLocation(t *testing.T) {
	tests := []struct {
		name     string
		incident incident.Incident
		expected string
	}{
		{
			name: "Address and coordinates",
			incident: incident.Incident{
				Address:  "Connaught Place, New Delhi",
				Location: incident.Coordinates{Lat: 28.6315, Lng: 77.2167},
			},
			expected: "Connaught Place, New Delhi (28.6315, 77.2167)",
		},
		{
			name: "Address only",
			incident: incident.Incident{
				Address: "Connaught Place, New Delhi",
			},
			expected: "Connaught Place, New Delhi",
		},
		{
			name: "Coordinates only",
			incident: incident.Incident{
				Location: incident.Coordinates{Lat: 28.6315, Lng: 77.2167},
			},
			expected: "(28.6315, 77.2167)",
		},
		{
			name:     "Empty location",
			incident: incident.Incident{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatLocation(tt.incident)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormatBulletList(t *testing.T) {
	tests := []struct {
		name     string
		items    []string
		expected string
	}{
		{
			name:     "Single item",
			items:    []string{"svc-101"},
			expected: "• svc-101",
		},
		{
			name:     "Multiple items",
			items:    []string{"svc-101", "svc-102", "svc-103"},
			expected: "• svc-101\n• svc-102\n• svc-103",
		},
		{
			name:     "Empty slice",
			items:    []string{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatBulletList(tt.items)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{
			name:     "Text shorter than max",
			text:     "Short text",
			maxLen:   100,
			expected: "Short text",
		},
		{
			name:     "Text exactly at max",
			text:     "Exact",
			maxLen:   5,
			expected: "Exact",
		},
		{
			name:     "Text longer than max",
			text:     "This is a very long text that should be truncated",
			maxLen:   20,
			expected: "This is a very long ...",
		},
		{
			name:     "Truncate at 500 chars",
			text:     strings.Repeat("a", 600),
			maxLen:   500,
			expected: strings.Repeat("a", 500) + "...",
		},
		{
			name:     "Empty text",
			text:     "",
			maxLen:   100,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateText(tt.text, tt.maxLen)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormatIncident_DescriptionTruncation(t *testing.T) {
	longText := strings.Repeat("a", 600)

	inc := incident.Incident{
		ID:          "inc-123",
		Title:       "Test",
		Severity:    incident.SeverityMedium,
		Timestamp:   "2026-08-30T14:30:00Z",
		Description: longText,
	}

	attachment := FormatIncident(inc)

	var descriptionField string
	for _, field := range attachment.Fields {
		if field.Title == "Description" {
			descriptionField = field.Value.(string)
		}
	}

	require.NotEmpty(t, descriptionField)
	assert.Equal(t, 503, len(descriptionField))
	assert.True(t, strings.HasSuffix(descriptionField, "..."))
}

func TestFormatIncident_SeverityVariations(t *testing.T) {
	tests := []struct {
		severity      incident.Severity
		expectedColor string
		expectedEmoji string
	}{
		{incident.SeverityCritical, ColorCritical, EmojiCritical},
		{incident.SeverityHigh, ColorHigh, EmojiHigh},
		{incident.SeverityMedium, ColorMedium, EmojiMedium},
		{incident.SeverityLow, ColorLow, EmojiLow},
		{incident.Severity(""), ColorUnknown, EmojiUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			inc := incident.Incident{
				ID:        "inc-123",
				Title:     "Test",
				Severity:  tt.severity,
				Timestamp: "2026-08-30T14:30:00Z",
			}

			attachment := FormatIncident(inc)

			assert.Equal(t, tt.expectedColor, attachment.Color)
			assert.Contains(t, attachment.Footer, tt.expectedEmoji)
			assert.Contains(t, attachment.Text, "Test")
		})
	}
}
