package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/generator"
	"github.com/Adalene/glyph/internal/llm"
	"github.com/Adalene/glyph/pkg/types"
)

// Generator is the subset of *generator.Pipeline the generate handler uses.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (types.Icon, error)
}

// GenerateHandler serves POST /api/generate.
type GenerateHandler struct {
	gen    Generator
	logger *zap.Logger
}

// NewGenerateHandler creates a GenerateHandler.
func NewGenerateHandler(gen Generator, logger *zap.Logger) *GenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateHandler{gen: gen, logger: logger}
}

// Generate handles POST /api/generate. An unreadable body is treated as an
// empty one so configuration errors still take precedence over input errors.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("unreadable generate body", zap.Error(err))
		body = GenerateRequest{}
	}

	name, _ := body.Name.(string)
	req := generator.Request{
		Name:     name,
		Category: stringOr(body.Category, types.DefaultCategory),
		Style:    stringOr(body.Style, string(llm.StyleOutline)),
	}

	icon, err := h.gen.Generate(r.Context(), req)
	if err != nil {
		h.respondGenerateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, GenerateResponse{Icon: icon})
}

func (h *GenerateHandler) respondGenerateError(w http.ResponseWriter, err error) {
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, generator.ErrNotConfigured):
		respondError(w, http.StatusInternalServerError, "API key not configured on server.", nil)
	case errors.Is(err, generator.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "Missing icon name.", nil)
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		respondError(w, status, apiErr.Message, nil)
	default:
		respondError(w, http.StatusInternalServerError, "Failed to generate icon. Please try again.", nil)
	}
}
