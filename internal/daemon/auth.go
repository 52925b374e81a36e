package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// withAuth wraps next with bearer-token validation. An empty token disables
// authentication and all requests pass through; otherwise requests must
// carry an "Authorization: Bearer <token>" header. Comparison is constant
// time.
func withAuth(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		candidate, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) != 1 {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
