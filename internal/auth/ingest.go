package auth

import (
	"crypto/hmac"
	"net/http"
	"strings"
)

// IngestKeyMiddleware guards the ingest endpoint with a shared key carried
// in the x-api-key header. Submitting stations are kiosks, not users, so
// they never hold JWTs.
type IngestKeyMiddleware struct {
	Key string
}

// NewIngestKeyMiddleware constructs ingest key middleware.
func NewIngestKeyMiddleware(key string) *IngestKeyMiddleware {
	return &IngestKeyMiddleware{Key: key}
}

// Wrap enforces the shared key check.
func (m *IngestKeyMiddleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Key == "" {
			http.Error(w, "ingest auth not configured", http.StatusUnauthorized)
			return
		}
		presented := strings.TrimSpace(r.Header.Get("x-api-key"))
		if !hmac.Equal([]byte(presented), []byte(m.Key)) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
