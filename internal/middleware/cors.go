package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// AllowedHeaders is the request header allow-list advertised on every response.
var AllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CORSHeaders stamps the permissive CORS headers on every response, whether
// or not the caller sent an Origin. Mount it after CORSPreflight so the
// advertised header list is the fixed allow-list, not the request echo.
func CORSHeaders(next http.Handler) http.Handler {
	allowHeaders := strings.Join(AllowedHeaders, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		next.ServeHTTP(w, r)
	})
}

// CORSPreflight negotiates browser preflights and passes them on to the
// OPTIONS route, which answers 200 with an empty body.
func CORSPreflight() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:     AllowedHeaders,
		ExposedHeaders:     []string{RequestIDHeader, "Retry-After"},
		MaxAge:             300,
		OptionsPassthrough: true,
	})
}

// PreflightHandler answers OPTIONS on any path.
func PreflightHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
