package seller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mosehq/backend-mose/internal/common"
)

// Handler serves seller HTTP endpoints.
type Handler struct {
	Svc *Service
}

// Profile handles GET /api/sellers/{slug}.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	profile, err := h.Svc.Profile(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "seller not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load seller", nil)
		return
	}
	common.JSONData(w, http.StatusOK, profile)
}

// ToggleFollow handles POST /api/sellers/{sellerID}/follow. Requires auth.
func (h *Handler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	sellerID := strings.TrimSpace(chi.URLParam(r, "sellerID"))
	if sellerID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "seller id is required", nil)
		return
	}
	following, followers, err := h.Svc.ToggleFollow(r.Context(), userID, sellerID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not toggle follow", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"sellerId":  sellerID,
		"following": following,
		"followers": followers,
	})
}
