/*
Package monitoring provides Prometheus metrics for the navigation engine,
the page client and the HTTP API.

Metrics implements stack.Recorder and transport.Recorder, so the same value
is handed to the stack registry and the fetch client.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	registry := stack.NewRegistry(address, stack.WithRecorder(metrics))
	client, _ := transport.NewClient(cfg, transport.WithRecorder(metrics))

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(monitoring.Handler(reg)))
*/
package monitoring
