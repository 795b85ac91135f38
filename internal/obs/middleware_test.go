package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPObsLabelsByMatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics("test", nil, reg)

	r := chi.NewRouter()
	r.Use(RoutePatternMiddleware)
	r.Use(HTTPObs{Metrics: m}.Middleware)
	r.Get("/widgets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets/42", nil))

	got := testutil.ToFloat64(m.ReqTotal.WithLabelValues(http.MethodGet, "/widgets/{id}", "418"))
	if got != 1 {
		t.Fatalf("request counter = %v", got)
	}
}

func TestResponseTapRecordsStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	tap := tapResponse(rec)

	if _, err := tap.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if tap.status != http.StatusOK {
		t.Fatalf("implicit status = %d", tap.status)
	}
	if tap.bytes != 2 {
		t.Fatalf("bytes = %d", tap.bytes)
	}

	tap = tapResponse(httptest.NewRecorder())
	tap.WriteHeader(http.StatusNoContent)
	if tap.status != http.StatusNoContent {
		t.Fatalf("status = %d", tap.status)
	}
}
