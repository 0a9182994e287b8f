// Package ws streams a navigation session over WebSocket.
//
// Every connection receives a welcome frame with its client id, a snapshot
// of the stacks, then every page and loader event of the session. Clients
// may drive the session with the same operations as the HTTP API. Frames
// are JSON encoded with sonic.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - snapshot, history: Inspect the session
//   - navigate, back, forward: Move the address
//   - click: Activate an element by selector
//   - open, close, reload, cancel: Operate on one stack
//
// Message Types (Server → Client):
//   - system: Connection established
//   - snapshot: Stacks at connection time
//   - event: Page transition or loader change
//   - result: Reply to a request, echoing its id
//   - pong: Reply to ping
//   - error: Request failed
//
// Example Usage:
//
//	handler := ws.NewHandler(sess, metrics, logger, cfg.Server.CORSOrigins)
//	defer handler.Close()
//	router.GET("/stream", handler.HandleConnection)
package ws
