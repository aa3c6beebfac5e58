// Package middleware provides HTTP middleware for the HackFund API.
package middleware

import "net/http"

// CORS returns middleware that handles CORS headers for the configured
// frontend origin. An empty origin (development) allows any caller.
func CORS(frontendOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case frontendOrigin == "" && origin != "":
				w.Header().Set("Access-Control-Allow-Origin", origin)
			case origin == frontendOrigin && origin != "":
				w.Header().Set("Access-Control-Allow-Origin", origin)
				// Credentials only for the explicit origin, never a
				// wildcard echo: that combination enables CSRF.
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
