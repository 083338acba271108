package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireBearer rejects requests that do not carry "Authorization: Bearer
// <key>". An empty key disables the check.
func RequireBearer(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		want := []byte(key)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSONError(w, http.StatusUnauthorized, "Missing or invalid Authorization header.")
				return
			}
			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), want) != 1 {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSONError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
