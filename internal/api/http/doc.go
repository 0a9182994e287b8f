// Package http provides the HTTP handlers of the navigation daemon.
//
// Every handler translates one request into a session operation, bounded
// by a timeout, and maps session errors onto status codes.
//
// Endpoints:
//   - Health: / and /health
//   - Inspection: /api/stacks, /api/stacks/:id, /api/document, /api/history
//   - Address: /api/navigate, /api/back, /api/forward
//   - Links: /api/click
//   - Stacks: /api/stacks/:id/open, /close, /reload, /cancel
//   - Metrics: /metrics/json
//
// Example Usage:
//
//	handlers := http.NewHandlers(sess, http.NewHandlerMetrics(metrics), logger, version)
//	router.GET("/api/stacks", handlers.ListStacks)
//	router.POST("/api/navigate", handlers.Navigate)
package http
