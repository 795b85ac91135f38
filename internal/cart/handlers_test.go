package cart_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mosehq/backend-mose/internal/cart"
)

type cartResponse struct {
	Data struct {
		Items      []cart.LineItem `json:"items"`
		TotalPrice int64           `json:"totalPrice"`
		TotalItems int             `json:"totalItems"`
	} `json:"data"`
}

func newRouter(t *testing.T) (chi.Router, *cart.MemoryStore) {
	t.Helper()
	store := &cart.MemoryStore{}
	handler := &cart.Handler{Svc: cart.NewService(store, zerolog.Nop())}

	r := chi.NewRouter()
	r.Get("/api/v1/cart", handler.Get)
	r.Post("/api/v1/cart/items", handler.AddItem)
	r.Patch("/api/v1/cart/items/{productId}", handler.UpdateItem)
	r.Delete("/api/v1/cart/items/{productId}", handler.RemoveItem)
	r.Delete("/api/v1/cart", handler.Clear)
	return r, store
}

func doJSON(t *testing.T, r chi.Router, method, path, session, body string) (*httptest.ResponseRecorder, cartResponse) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(cart.SessionHeader, session)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp cartResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestCartFlow(t *testing.T) {
	r, _ := newRouter(t)

	rec, resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "s1",
		`{"productId":"p1","product":{"id":"p1","name":"Tote Bag","price":1000},"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Data.Items, 1)
	require.Equal(t, int64(2000), resp.Data.TotalPrice)
	require.Equal(t, 2, resp.Data.TotalItems)

	// Same key merges; total accumulates from add-time prices.
	rec, resp = doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "s1",
		`{"productId":"p1","product":{"id":"p1","name":"Tote Bag","price":1000},"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Data.Items, 1)
	require.Equal(t, 5, resp.Data.Items[0].Quantity)
	require.Equal(t, int64(5000), resp.Data.TotalPrice)

	// Sale price wins over base price at add-time.
	rec, resp = doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "s1",
		`{"productId":"p2","product":{"id":"p2","name":"Mug","price":500,"salePrice":400},"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(5400), resp.Data.TotalPrice)

	rec, resp = doJSON(t, r, http.MethodPatch, "/api/v1/cart/items/p1", "s1", `{"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1400), resp.Data.TotalPrice)

	// Zero quantity removes the line entirely.
	rec, resp = doJSON(t, r, http.MethodPatch, "/api/v1/cart/items/p1", "s1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Data.Items, 1)
	require.Equal(t, "p2", resp.Data.Items[0].ProductID)

	rec, resp = doJSON(t, r, http.MethodDelete, "/api/v1/cart", "s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, resp.Data.Items)
	require.Zero(t, resp.Data.TotalPrice)
	require.Zero(t, resp.Data.TotalItems)
}

func TestCartSessionsAreIndependent(t *testing.T) {
	r, _ := newRouter(t)

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "alice",
		`{"productId":"p1","product":{"id":"p1","name":"Tote","price":100},"quantity":1}`)

	rec, resp := doJSON(t, r, http.MethodGet, "/api/v1/cart", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, resp.Data.Items)
}

func TestCartRejectsBadPayloads(t *testing.T) {
	r, _ := newRouter(t)

	rec, _ := doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "s1", `{"quantity":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "s1", `{"productId":"p1","quantity":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "s1", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartMintsSessionCookie(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == cart.SessionCookie && c.Value != "" {
			found = true
		}
	}
	require.True(t, found, "expected a cart session cookie to be set")
}
