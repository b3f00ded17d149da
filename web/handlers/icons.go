package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/catalog"
	"github.com/Adalene/glyph/internal/storage"
	"github.com/Adalene/glyph/pkg/types"
)

// maxBodyBytes bounds request bodies on every JSON endpoint.
const maxBodyBytes = 1 << 20

// IconCatalog is the subset of *catalog.Catalog the icon handlers use.
type IconCatalog interface {
	FetchAll(ctx context.Context) catalog.Listing
	Save(ctx context.Context, icon types.Icon) (catalog.SaveResult, error)
	Health(ctx context.Context) catalog.Health
}

// IconHandlers serves the icon listing, icon creation and health endpoints.
type IconHandlers struct {
	catalog  IconCatalog
	upstream func() string
	logger   *zap.Logger
}

// NewIconHandlers creates IconHandlers.
func NewIconHandlers(c IconCatalog, logger *zap.Logger) *IconHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IconHandlers{catalog: c, logger: logger}
}

// WithUpstreamState makes Health report the model API breaker state
// returned by fn.
func (h *IconHandlers) WithUpstreamState(fn func() string) *IconHandlers {
	h.upstream = fn
	return h
}

// ListIcons handles GET /api/icons. It always answers 200; a degraded
// listing is logged by the catalog.
func (h *IconHandlers) ListIcons(w http.ResponseWriter, r *http.Request) {
	listing := h.catalog.FetchAll(r.Context())
	respondJSON(w, http.StatusOK, IconsResponse{Icons: listing.Icons})
}

// CreateIcon handles POST /api/icons. The record needs at least an id and a
// path; it is stamped as generated and rejected if the id is taken.
func (h *IconHandlers) CreateIcon(w http.ResponseWriter, r *http.Request) {
	var icon types.Icon
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&icon); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid icon data.", nil)
		return
	}
	if icon.ID == "" || icon.Path == "" {
		respondError(w, http.StatusBadRequest, "Invalid icon data.", nil)
		return
	}

	result, err := h.catalog.Save(r.Context(), icon)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "Invalid icon data.", err)
			return
		}
		h.logger.Error("icon save failed", zap.String("id", icon.ID), zap.Error(err))
		respondError(w, http.StatusBadRequest, "Icon already exists or failed to save.", nil)
		return
	}
	if !result.Accepted {
		respondError(w, http.StatusBadRequest, "Icon already exists or failed to save.", nil)
		return
	}

	respondJSON(w, http.StatusOK, CreateIconResponse{Success: true, Icon: result.Icon})
}

// Health handles GET /api/health. The service is degraded while the remote
// store is unreachable or the upstream breaker is open.
func (h *IconHandlers) Health(w http.ResponseWriter, r *http.Request) {
	health := h.catalog.Health(r.Context())
	resp := HealthResponse{
		Status:   "ok",
		Remote:   health.Remote,
		Snapshot: health.Snapshot,
	}
	if h.upstream != nil {
		resp.Upstream = h.upstream()
	}
	if health.Remote == "unavailable" || resp.Upstream == "open" {
		resp.Status = "degraded"
	}
	respondJSON(w, http.StatusOK, resp)
}
