package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/mosehq/backend-mose/internal/common"
)

// Handler serves contact and testimonial HTTP endpoints.
type Handler struct {
	Svc *Service
}

// SubmitMessage handles POST /api/contact.
func (h Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var m Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	saved, err := h.Svc.SubmitMessage(r.Context(), m)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, saved)
}

// SubmitTestimonial handles POST /api/testimonials.
func (h Handler) SubmitTestimonial(w http.ResponseWriter, r *http.Request) {
	var t Testimonial
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	saved, err := h.Svc.SubmitTestimonial(r.Context(), t)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, saved)
}

// ListTestimonials handles GET /api/testimonials.
func (h Handler) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	testimonials, err := h.Svc.Testimonials(r.Context(), limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list testimonials", nil)
		return
	}
	common.JSONData(w, http.StatusOK, testimonials)
}

func (h Handler) writeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid submission", details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
