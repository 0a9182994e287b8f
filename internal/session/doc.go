// Package session hosts a live navigation session: one fetched document,
// its stacks and the address they share.
//
// The document and every stack belong to the session loop. Callers never
// touch them directly; each operation is posted with loop.Call and waits
// for its result, so HTTP handlers and websocket readers can share a
// session freely.
//
// Features:
//   - Entry document fetched through the transport client
//   - Stacks created from validated options (default: one stack on body)
//   - Address navigation with back/forward history
//   - Link clicks routed through the stack registry
//   - Page and loader events fanned out to subscribers
//
// Example Usage:
//
//	sess, err := session.New(session.Config{Entry: "/"}, client,
//	    session.WithLogger(logger.Logger),
//	    session.WithRecorder(metrics))
//	if err := sess.Start(ctx); err != nil {
//	    return err
//	}
//	defer sess.Close()
//	sess.Navigate(ctx, "/docs#intro")
package session
