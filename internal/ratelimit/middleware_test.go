package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) Limiter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return Limiter{Client: client, Prefix: "mose-rl:"}
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	h := Handler{
		Limiter: newLimiter(t),
		Config: Config{
			Key:    func(r *http.Request) string { return "contact:" + ByClientIP(r) },
			Window: time.Minute,
			Max:    2,
		},
	}
	srv := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
}

func TestMiddlewareKeysAreIndependent(t *testing.T) {
	h := Handler{
		Limiter: newLimiter(t),
		Config: Config{
			Key:    func(r *http.Request) string { return ByClientIP(r) },
			Window: time.Minute,
			Max:    1,
		},
	}
	srv := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	second.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, second)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // force limiter errors

	var sawErr bool
	h := Handler{
		Limiter: Limiter{Client: client, Prefix: "mose-rl:"},
		Config: Config{
			Key:    func(r *http.Request) string { return ByClientIP(r) },
			Window: time.Minute,
			Max:    1,
		},
		OnError: func(error) { sawErr = true },
	}
	srv := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, sawErr)
}
