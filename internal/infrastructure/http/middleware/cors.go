package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type, x-client-info, apikey"
)

// CORS stamps the cross-origin headers browsers expect from the ingestion
// API on every response. Preflight requests are answered by the route itself.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	origin := chimw.SetHeader("Access-Control-Allow-Origin", allowedOrigin)
	methods := chimw.SetHeader("Access-Control-Allow-Methods", corsAllowMethods)
	headers := chimw.SetHeader("Access-Control-Allow-Headers", corsAllowHeaders)

	return func(next http.Handler) http.Handler {
		return origin(methods(headers(next)))
	}
}
