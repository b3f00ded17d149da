// Package llm provides the model integration for icon generation: a strict
// JSON-only prompt template, an Anthropic Messages API client guarded by a
// circuit breaker, and a tolerant parser for the model's reply.
package llm

import "fmt"

// Style selects the visual guide embedded in the icon prompt.
type Style string

const (
	StyleOutline  Style = "outline"
	StyleMinimal  Style = "minimal"
	StyleDetailed Style = "detailed"
)

// ParseStyle maps a request value to a Style. Unknown or empty values fall
// back to StyleOutline.
func ParseStyle(s string) Style {
	switch Style(s) {
	case StyleMinimal:
		return StyleMinimal
	case StyleDetailed:
		return StyleDetailed
	default:
		return StyleOutline
	}
}

// Guide returns the style description sent to the model.
func (s Style) Guide() string {
	switch s {
	case StyleOutline:
		return "Clean minimal Lucide/Feather-style stroke paths. Simple geometric forms. Elegant and immediately recognizable."
	case StyleMinimal:
		return "Ultra-minimal. 2–4 strokes maximum. Abstract geometric reduction of the concept."
	case StyleDetailed:
		return "More complex with inner detail lines. Still stroke-only but richer silhouette."
	default:
		return StyleOutline.Guide()
	}
}

// IconPrompt generates the single-turn prompt for one icon. The reply is
// expected to be exactly {"path": "...", "tags": [...]}.
func IconPrompt(name, category string, style Style) string {
	return fmt.Sprintf(`You are an expert SVG icon designer for a stroke-based icon system (like Lucide or Feather Icons).

Design a "%[1]s" icon for category "%[2]s".
Style: %[3]s

STRICT RULES:
- viewBox: 0 0 24 24
- Output ONLY the SVG path "d" attribute value(s)
- Multiple sub-paths: join with a space in one string
- NO fill anywhere, stroke only
- Coordinates stay within 2–22 (2px padding all sides)
- Must be immediately recognizable as "%[1]s"
- 3–6 relevant search tags

Respond ONLY with valid JSON, no markdown fences:
{"path":"<path d value>","tags":["tag1","tag2","tag3"]}`, name, category, style.Guide())
}
