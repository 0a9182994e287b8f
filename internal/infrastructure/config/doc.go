// Package config provides 12-factor configuration for the pagestack daemon.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting of the API
//   - Session: Origin site, entry address and stack definition file
//   - Fetch: Page client timeout, retries, request rate and extra headers
//
// Stack definitions are read with LoadStacks from YAML or TOML files, or
// from a directory of them:
//
//	stacks:
//	  - id: docs
//	    container: "#docs"
//	    loading: placeholder
//	    animation:
//	      open: {motion: fade, duration: 150ms}
//	    links:
//	      exclude: ["/docs/private/**"]
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - PAGESTACK_ORIGIN, PAGESTACK_ENTRY, PAGESTACK_STACKS, PAGESTACK_SANITIZE
//   - FETCH_TIMEOUT, FETCH_RETRIES, FETCH_RPS, FETCH_USER_AGENT, FETCH_HEADERS
package config
