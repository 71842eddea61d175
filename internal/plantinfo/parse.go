// Package plantinfo turns free-form model output into a normalized
// models.PlantInfo.
package plantinfo

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/atinyakov/FloraFacts/internal/models"
)

// Fallback is returned whenever the model output cannot be decoded.
var Fallback = models.PlantInfo{
	Name:             "Plant Identification Error",
	ScientificName:   "N/A",
	Description:      "Unable to parse plant information",
	CareInstructions: "Please try uploading the image again",
}

var fencedJSON = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n?(.*?)```")

// Parse extracts a PlantInfo from text. It never fails: text that does not
// decode to a JSON object yields Fallback.
func Parse(text string) (info models.PlantInfo) {
	defer func() {
		if r := recover(); r != nil {
			info = Fallback
		}
	}()

	var raw map[string]any
	if err := json.Unmarshal([]byte(Extract(text)), &raw); err != nil || raw == nil {
		return Fallback
	}
	return fromMap(raw)
}

// Extract selects the part of text that should hold the JSON object: the
// interior of a ```json fenced block, else the first balanced {...}
// substring, else text itself.
func Extract(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if obj, ok := firstObject(text); ok {
		return obj
	}
	return text
}

// firstObject returns the first brace-balanced substring starting at the
// first '{'. Braces inside JSON string literals are ignored.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func fromMap(m map[string]any) models.PlantInfo {
	info := models.PlantInfo{
		Name:             stringOr(m["name"], ""),
		ScientificName:   stringOr(m["scientificName"], ""),
		Description:      stringOr(m["description"], ""),
		CareInstructions: stringOr(m["careInstructions"], ""),
	}

	details, _ := m["additionalDetails"].(map[string]any)
	info.AdditionalDetails = models.AdditionalDetails{
		NativeTo:    stringOr(details["nativeTo"], ""),
		SunExposure: stringOr(details["sunExposure"], ""),
		WaterNeeds:  stringOr(details["waterNeeds"], ""),
		SoilType:    stringOr(details["soilType"], ""),
		GrowthRate:  stringOr(details["growthRate"], ""),
		BloomSeason: stringOr(details["bloomSeason"], ""),
	}
	return info.Normalize()
}

// stringOr returns v when it is a non-empty string and def otherwise.
func stringOr(v any, def string) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return def
	}
	return s
}
