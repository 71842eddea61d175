package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/identify"
	"github.com/atinyakov/FloraFacts/internal/middleware"
)

// IdentifyService defines the identification operation required by the
// IdentifyHandler. identity may be empty for anonymous callers.
type IdentifyService interface {
	Identify(ctx context.Context, identity, dataURL string) (string, error)
}

// IdentifyHandler serves POST /api/identify.
type IdentifyHandler struct {
	Service  IdentifyService
	Validate *validator.Validate
	Log      *zap.Logger
}

// IdentifyRequest is the JSON payload of POST /api/identify.
type IdentifyRequest struct {
	// Base64Image is the photo as a data URL.
	Base64Image string `json:"base64Image" validate:"required,startswith=data:"`
}

// IdentifyResponse carries the raw model reply. Parsing happens on the client.
type IdentifyResponse struct {
	ResponseText string `json:"responseText"`
}

// Identify handles POST /api/identify requests.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "base64Image must be an image data URL")
		return
	}

	userID := middleware.GetUserIDFromContext(r.Context())
	text, err := h.Service.Identify(r.Context(), userID, req.Base64Image)
	if err != nil {
		status := identifyStatus(err)
		if status >= http.StatusInternalServerError {
			h.Log.Warn("identification failed", zap.String("user", userID), zap.Error(err))
		}
		writeError(w, status, identify.Message(err))
		return
	}

	writeJSON(w, http.StatusOK, IdentifyResponse{ResponseText: text})
}

func identifyStatus(err error) int {
	switch {
	case errors.Is(err, identify.ErrNotAPlant), errors.Is(err, identify.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, identify.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, identify.ErrOverloaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
