package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing more to write.
		zap.L().Warn("failed to encode JSON response", zap.Error(err))
	}
}

// respondError writes an error response with the given status code. err, if
// non-nil, is included as details; pass nil for errors that must stay
// server-side.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}

// MethodNotAllowed answers any method a route does not serve.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}
