package common

import (
	"net/http"
	"strconv"
)

// ParsePagination extracts page and per-page query parameters, falling back
// to the provided default page size. Both "perPage" and "limit" are accepted
// for the page size.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	size := r.URL.Query().Get("perPage")
	if size == "" {
		size = r.URL.Query().Get("limit")
	}
	if l, err := strconv.Atoi(size); err == nil && l > 0 {
		perPage = l
	}
	return
}
