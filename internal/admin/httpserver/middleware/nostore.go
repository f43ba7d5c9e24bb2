package middleware

import "net/http"

// NoStore marks responses as uncacheable. Admin pages carry per-user data and
// CSRF tokens.
func NoStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-store, max-age=0")
			h.Set("Pragma", "no-cache")
			next.ServeHTTP(w, r)
		})
	}
}
