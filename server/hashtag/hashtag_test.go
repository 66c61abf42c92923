package hashtag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		inc      incident.Incident
		expected string
	}{
		{
			name: "full incident with area and country",
			inc: incident.Incident{
				Severity: incident.SeverityCritical,
				Type:     incident.TypeFire,
				Address:  "Connaught Place, New Delhi, India",
			},
			expected: "🏷️ #Critical, #Fire, #NewDelhi, #India",
		},
		{
			name: "address without a country",
			inc: incident.Incident{
				Severity: incident.SeverityHigh,
				Type:     incident.TypeTraffic,
				Address:  "Ring Road, New Delhi",
			},
			expected: "🏷️ #High, #Traffic, #NewDelhi",
		},
		{
			name: "no address",
			inc: incident.Incident{
				Severity: incident.SeverityMedium,
				Type:     incident.TypeMedical,
			},
			expected: "🏷️ #Medium, #Medical",
		},
		{
			name:     "missing severity and type fall back to defaults",
			inc:      incident.Incident{},
			expected: "🏷️ #Incident, #Other",
		},
		{
			name: "duplicate tags collapse",
			inc: incident.Incident{
				Severity: incident.SeverityLow,
				Type:     incident.TypeFire,
				Address:  "Fire Station Road, Fire",
			},
			expected: "🏷️ #Low, #Fire",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Generate(test.inc))
		})
	}
}

func TestSeverityTag(t *testing.T) {
	assert.Equal(t, "#Critical", severityTag(incident.SeverityCritical))
	assert.Equal(t, "#High", severityTag(incident.SeverityHigh))
	assert.Equal(t, "#Medium", severityTag(incident.SeverityMedium))
	assert.Equal(t, "#Low", severityTag(incident.SeverityLow))
	assert.Equal(t, "#Incident", severityTag(""))
}

func TestTypeTag(t *testing.T) {
	assert.Equal(t, "#Fire", typeTag(incident.TypeFire))
	assert.Equal(t, "#Medical", typeTag(incident.TypeMedical))
	assert.Equal(t, "#Police", typeTag(incident.TypePolice))
	assert.Equal(t, "#Hazmat", typeTag(incident.TypeHazmat))
	assert.Equal(t, "#Traffic", typeTag(incident.TypeTraffic))
	assert.Equal(t, "#Other", typeTag(""))
}

func TestExtractLocationTags(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		expected []string
	}{
		{
			name:     "city and country",
			address:  "New Delhi, India",
			expected: []string{"#NewDelhi", "#India"},
		},
		{
			name:     "street number dropped",
			address:  "221B Baker Street, London, United Kingdom",
			expected: []string{"#London", "#UnitedKingdom"},
		},
		{
			name:     "country only",
			address:  "India",
			expected: []string{"#India"},
		},
		{
			name:     "area only",
			address:  "Connaught Place",
			expected: []string{"#ConnaughtPlace"},
		},
		{
			name:     "postal code only",
			address:  "110001",
			expected: nil,
		},
		{
			name:     "empty address",
			address:  "",
			expected: nil,
		},
		{
			name:     "unrecognized last part treated as area",
			address:  "Sector 14, Dwarka",
			expected: []string{"#Dwarka"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, extractLocationTags(test.address))
		})
	}
}

func TestDeduplicateTags(t *testing.T) {
	tags := deduplicateTags([]string{"#Fire", "#fire", "#NewDelhi", "#Fire"})
	assert.Equal(t, []string{"#Fire", "#NewDelhi"}, tags)
}

func TestCamelCase(t *testing.T) {
	assert.Equal(t, "NewDelhi", camelCase("New Delhi"))
	assert.Equal(t, "India", camelCase("india"))
	assert.Equal(t, "", camelCase(""))
}
