// Package transport fetches remote page markup for stacks.
//
// Client implements stack.Fetcher. Requests go through resty on a
// retryablehttp transport, wait on a rate limiter and run inside a per-host
// circuit breaker. Bodies are checked to be markup with mimetype and decoded
// to UTF-8 using the declared or detected charset.
//
//	client, err := transport.NewClient(transport.Config{Origin: "https://example.com"})
//	fut := client.Fetch(ctx, "/docs#intro")
//	fut.Then(sched, func(c markup.Content) { ... }, func(err error) { ... })
package transport
