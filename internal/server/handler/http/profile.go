package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/middleware"
	"github.com/atinyakov/FloraFacts/internal/models"
	"github.com/atinyakov/FloraFacts/internal/service"
)

// ProfileService defines the profile operations required by the ProfileHandler.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	SetAvatar(ctx context.Context, userID, avatar string) (*models.Profile, error)
	DeleteAccountData(ctx context.Context, userID string) error
}

// ProfileHandler serves /api/profile and /api/account. Routes are mounted
// behind middleware.RequireIdentity.
type ProfileHandler struct {
	Service  ProfileService
	Validate *validator.Validate
	Log      *zap.Logger
}

// AvatarRequest is the JSON payload of PUT /api/profile.
type AvatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	p, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		h.Log.Error("load profile", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetAvatar handles PUT /api/profile.
func (h *ProfileHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req AvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "avatar is required")
		return
	}

	userID := middleware.GetUserIDFromContext(r.Context())
	p, err := h.Service.SetAvatar(r.Context(), userID, req.Avatar)
	if errors.Is(err, service.ErrInvalidAvatar) {
		writeError(w, http.StatusBadRequest, "unknown avatar")
		return
	}
	if err != nil {
		h.Log.Error("update avatar", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteAccount handles DELETE /api/account.
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if err := h.Service.DeleteAccountData(r.Context(), userID); err != nil {
		h.Log.Error("delete account data", zap.String("user", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete account data")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
