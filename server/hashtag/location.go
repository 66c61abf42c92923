package hashtag

import (
	"strings"
	"unicode"

	"github.com/biter777/countries"
)

// extractLocationTags extracts location-based hashtags from an address string.
//
// Heuristic:
//
// Step 1: Split by commas and clean each part
//   - Drop any part containing a digit (street numbers, postal codes)
//
// Step 2: Resolve the remaining parts
//   - If the last part names a country, it becomes a country tag with the
//     full name in CamelCase ("IN" or "India" -> "#India")
//   - The nearest remaining part becomes the area tag in CamelCase
//     ("New Delhi" -> "#NewDelhi")
//
// Examples:
//   - "Connaught Place, New Delhi, India" -> ["#NewDelhi", "#India"]
//   - "Connaught Place, New Delhi" -> ["#NewDelhi"]
//   - "India" -> ["#India"]
//   - "110001" -> []
//
// Returns an empty slice if every part is dropped.
func extractLocationTags(locationAddress string) []string {
	var parts []string
	for _, part := range strings.Split(locationAddress, ",") {
		part = strings.TrimSpace(part)
		if part == "" || containsDigit(part) {
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil
	}

	country := countries.Unknown
	last := parts[len(parts)-1]
	if resolved := countries.ByName(last); resolved != countries.Unknown {
		country = resolved
		parts = parts[:len(parts)-1]
	}

	var tags []string
	if len(parts) > 0 {
		tags = append(tags, "#"+camelCase(parts[len(parts)-1]))
	}
	if country != countries.Unknown {
		tags = append(tags, "#"+camelCase(country.String()))
	}

	return tags
}

func containsDigit(text string) bool {
	for _, r := range text {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
