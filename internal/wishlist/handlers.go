package wishlist

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mosehq/backend-mose/internal/common"
)

// Handler serves wishlist HTTP endpoints. All routes require authentication.
type Handler struct {
	Svc *Service
}

// List handles GET /api/wishlist.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	entries, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list wishlist", nil)
		return
	}
	common.JSONData(w, http.StatusOK, entries)
}

// Toggle handles POST /api/wishlist/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	wishlisted, err := h.Svc.Toggle(r.Context(), userID, req.ProductID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to toggle wishlist", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"productId":  req.ProductID,
		"wishlisted": wishlisted,
	})
}

// Check handles GET /api/wishlist/{productID}.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	productID := chi.URLParam(r, "productID")
	wishlisted, err := h.Svc.Check(r.Context(), userID, productID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to check wishlist", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"productId":  productID,
		"wishlisted": wishlisted,
	})
}
