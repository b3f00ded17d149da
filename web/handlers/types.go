package handlers

import (
	"github.com/Adalene/glyph/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// GenerateRequest is the request body for POST /api/generate. Fields are
// decoded loosely so a non-string name is reported as a missing name
// rather than a malformed body.
type GenerateRequest struct {
	Name     interface{} `json:"name"`
	Category interface{} `json:"category"`
	Style    interface{} `json:"style"`
}

// GenerateResponse is the response body for POST /api/generate.
type GenerateResponse struct {
	Icon types.Icon `json:"icon"`
}

// IconsResponse is the response body for GET /api/icons.
type IconsResponse struct {
	Icons []types.Icon `json:"icons"`
}

// CreateIconResponse is the response body for POST /api/icons.
type CreateIconResponse struct {
	Success bool       `json:"success"`
	Icon    types.Icon `json:"icon"`
}

// HealthResponse is the response body for GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`   // "ok" or "degraded"
	Remote   string `json:"remote"`   // "ok", "unavailable" or "disabled"
	Snapshot string `json:"snapshot"` // "writable" or "read-only"

	// Upstream is the model API circuit breaker state: "closed", "open",
	// "half-open" or "disabled" when no API key is configured.
	Upstream string `json:"upstream,omitempty"`
}

// Feed event types.
const (
	EventIconCreated = "icon.created"
)

// FeedEvent is one message on the live icon feed.
type FeedEvent struct {
	Type string     `json:"type"`
	Icon types.Icon `json:"icon"`
}

// stringOr returns v when it is a non-empty string, otherwise def.
func stringOr(v interface{}, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}
