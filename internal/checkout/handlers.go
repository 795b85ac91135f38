package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mosehq/backend-mose/internal/cart"
	"github.com/mosehq/backend-mose/internal/common"
)

// Handler serves the checkout HTTP endpoint.
type Handler struct {
	Svc *Service
}

type startRequest struct {
	Email string `json:"email"`
}

// Start handles POST /api/checkout. The cart session comes from the same
// header or cookie the cart endpoints use.
func (h Handler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionFromRequest(r)
	if sessionID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart session is required", nil)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "email is required", nil)
		return
	}

	userID, _ := common.UserID(r.Context())
	result, err := h.Svc.Start(r.Context(), StartRequest{
		SessionID: sessionID,
		UserID:    userID,
		Email:     req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
		case errors.Is(err, ErrCheckoutInProgress):
			common.JSONError(w, http.StatusConflict, "CHECKOUT_IN_PROGRESS", "a checkout is already in progress", nil)
		default:
			common.JSONError(w, http.StatusBadGateway, "CHECKOUT_FAILED", "could not start checkout", nil)
		}
		return
	}
	common.JSONData(w, http.StatusCreated, result)
}

func sessionFromRequest(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(cart.SessionHeader)); v != "" {
		return v
	}
	if cookie, err := r.Cookie(cart.SessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
