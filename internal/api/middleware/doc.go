// Package middleware provides the Gin middleware of the session API:
// CORS via gin-contrib/cors and per-client or global rate limiting.
package middleware
