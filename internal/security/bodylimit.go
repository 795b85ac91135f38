package security

import "net/http"

// BodyLimit caps request payload size. Oversized requests that declare their
// length are rejected up front with 413; chunked bodies are truncated at the
// limit by http.MaxBytesReader, which surfaces as a read error in the handler.
type BodyLimit struct {
	Max int64
}

// Middleware enforces the configured limit on every request body.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
