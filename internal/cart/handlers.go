package cart

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mosehq/backend-mose/internal/common"
	"github.com/mosehq/backend-mose/internal/pricing"
)

const (
	// SessionCookie carries the cart session identifier for browser clients.
	SessionCookie = "mose_cart_session"
	// SessionHeader lets API clients pin a cart session explicitly.
	SessionHeader = "X-Cart-Session"
)

// Handler exposes the cart over HTTP.
type Handler struct {
	Svc          *Service
	CookieSecure bool
	CookieMaxAge time.Duration
}

type addItemPayload struct {
	ProductID      string            `json:"productId"`
	Product        ProductSnapshot   `json:"product"`
	Customizations map[string]string `json:"customizations"`
	Quantity       int               `json:"quantity"`
}

// Get returns the session's cart with derived aggregates.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)
	ledger := h.Svc.Ledger(r.Context(), sessionID)
	h.renderCart(w, http.StatusOK, ledger)
}

// AddItem adds a line to the cart, merging with an existing line that shares
// the same product and customization set.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.ProductID = strings.TrimSpace(payload.ProductID)
	if payload.ProductID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	if payload.Quantity < 1 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "quantity must be at least 1", nil)
		return
	}
	if payload.Product.ID == "" {
		payload.Product.ID = payload.ProductID
	}

	// Total is fixed at add-time from the submitted snapshot; later merges
	// add onto it rather than repricing.
	unit := pricing.Unit(payload.Product.Price, payload.Product.SalePrice)
	item := LineItem{
		ProductID:      payload.ProductID,
		Product:        payload.Product,
		Customizations: payload.Customizations,
		Quantity:       payload.Quantity,
		TotalPrice:     unit * pricing.Money(payload.Quantity),
	}
	h.Svc.AddItem(r.Context(), sessionID, item)
	h.renderCart(w, http.StatusOK, h.Svc.Ledger(r.Context(), sessionID))
}

// UpdateItem sets the quantity for the first line matching the product.
// A quantity of zero or less removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)
	productID := chi.URLParam(r, "productId")
	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	h.Svc.UpdateQuantity(r.Context(), sessionID, productID, payload.Quantity)
	h.renderCart(w, http.StatusOK, h.Svc.Ledger(r.Context(), sessionID))
}

// RemoveItem removes the first line matching the product.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)
	productID := chi.URLParam(r, "productId")
	h.Svc.RemoveItem(r.Context(), sessionID, productID)
	h.renderCart(w, http.StatusOK, h.Svc.Ledger(r.Context(), sessionID))
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)
	h.Svc.Clear(r.Context(), sessionID)
	h.renderCart(w, http.StatusOK, h.Svc.Ledger(r.Context(), sessionID))
}

func (h *Handler) renderCart(w http.ResponseWriter, status int, ledger *Ledger) {
	items := ledger.Items()
	if items == nil {
		items = []LineItem{}
	}
	common.JSONData(w, status, map[string]any{
		"items":      items,
		"totalPrice": ledger.TotalPrice(),
		"totalItems": ledger.TotalItems(),
	})
}

// session resolves the cart session id from header or cookie, minting a new
// one (and setting the cookie) when neither is present.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if id := strings.TrimSpace(cookie.Value); id != "" {
			return id
		}
	}
	id := uuid.NewString()
	maxAge := int(h.CookieMaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = int((30 * 24 * time.Hour) / time.Second)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
