// Package server assembles the pagestack daemon.
//
// NewServer wires the pieces together:
//   - structured logging and a Prometheus registry
//   - the page client (retries, rate limit, per-host breakers)
//   - stack definitions loaded from YAML or TOML
//   - the navigation session, started against the configured origin
//   - Gin routes for the REST API, the /stream WebSocket and /metrics
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
