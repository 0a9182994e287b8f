// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Engine components receive named children of the process logger and tag
// entries with the Stack, URL, Page and Client fields.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Component("stack").Info("Page opened", logging.Stack("main"), logging.URL("/docs#intro"))
package logging
