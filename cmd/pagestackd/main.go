// Package main provides the pagestackd daemon.
//
// pagestackd loads an entry document from an origin, runs page stacks over
// it and exposes navigation over HTTP and WebSocket.
//
// Usage:
//
//	pagestackd serve --origin http://localhost:8080 --stacks stacks.yaml
//	pagestackd version
package main

func main() {
	Execute()
}
