package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/middleware"
	"github.com/atinyakov/FloraFacts/internal/models"
)

// GalleryService defines the gallery operations required by the GalleryHandler.
type GalleryService interface {
	Add(ctx context.Context, userID, image string, info models.PlantInfo) (*models.GalleryItem, bool, error)
	Remove(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string) ([]models.GalleryItem, error)
	ClearAll(ctx context.Context, userID string) error
}

// GalleryHandler serves the /api/gallery endpoints. Anonymous callers get an
// empty gallery and their writes are ignored.
type GalleryHandler struct {
	Service  GalleryService
	Validate *validator.Validate
	Log      *zap.Logger
}

// AddRequest is the JSON payload of POST /api/gallery.
type AddRequest struct {
	Image     string           `json:"image" validate:"required,startswith=data:"`
	PlantInfo models.PlantInfo `json:"plantInfo"`
}

// AddResponse is returned when nothing was stored.
type AddResponse struct {
	Saved bool `json:"saved"`
}

// List handles GET /api/gallery.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	items, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.Log.Error("list gallery", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load gallery")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Add handles POST /api/gallery.
func (h *GalleryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "image must be an image data URL")
		return
	}

	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	item, saved, err := h.Service.Add(r.Context(), userID, req.Image, req.PlantInfo)
	if err != nil {
		h.Log.Error("save to gallery", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save to gallery")
		return
	}
	if !saved {
		writeJSON(w, http.StatusOK, AddResponse{Saved: false})
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Remove handles DELETE /api/gallery/{id}.
func (h *GalleryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Service.Remove(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.Log.Error("remove from gallery", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to remove from gallery")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/gallery.
func (h *GalleryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Service.ClearAll(r.Context(), userID); err != nil {
		h.Log.Error("clear gallery", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear gallery")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
