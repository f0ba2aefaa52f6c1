package middleware

import "net/http"

// NoStore marks responses as uncacheable. Weather results and ops status are
// only meaningful at the moment they are produced.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
