package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mosehq/backend-mose/internal/common"
)

// Handler serves catalog HTTP endpoints.
type Handler struct {
	Svc *Service
}

// Products handles GET /api/products.
func (h Handler) Products(w http.ResponseWriter, r *http.Request) {
	q := ListQuery{
		Search:   r.URL.Query().Get("search"),
		SellerID: r.URL.Query().Get("seller"),
	}
	q.Page, q.PerPage = common.ParsePagination(r, 0)
	result, err := h.Svc.List(r.Context(), q)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list products", nil)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

// ProductDetail handles GET /api/products/{slug}.
func (h Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	product, err := h.Svc.Detail(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load product", nil)
		return
	}
	common.JSONData(w, http.StatusOK, product)
}
