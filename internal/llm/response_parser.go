package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMissingPath is returned when the model reply parses but carries no path.
var ErrMissingPath = errors.New("no path in response")

// IconResponse is the JSON object the icon prompt asks the model for.
// Tags is nil when the reply has no tags field (or an explicit null) and
// an empty slice when the model sent [].
type IconResponse struct {
	Path string   `json:"path"`
	Tags []string `json:"tags"`
}

var jsonFence = regexp.MustCompile("(?i)```json\\s*")

// stripFences removes markdown code fences the model adds despite
// instructions: any ```json marker (any case, with trailing whitespace)
// and any bare ``` marker.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = jsonFence.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// extractJSON extracts the first complete JSON object from a string that may
// contain extra text around it.
func extractJSON(text string) string {
	text = stripFences(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // No JSON found, return as-is and let parser fail
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // No complete JSON found, return as-is
}

// ParseIconResponse parses the model's reply into an IconResponse. Fenced
// and unfenced replies parse identically. It fails when the reply is not a
// JSON object or when path is missing or empty.
func ParseIconResponse(text string) (*IconResponse, error) {
	cleanJSON := extractJSON(text)

	var response IconResponse
	if err := json.Unmarshal([]byte(cleanJSON), &response); err != nil {
		return nil, fmt.Errorf("failed to parse icon JSON: %w", err)
	}
	if response.Path == "" {
		return nil, ErrMissingPath
	}

	return &response, nil
}
