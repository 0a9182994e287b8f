/*
Package resilience provides the circuit breakers guarding remote page fetches.

# Overview

A Breaker stops calling a host that keeps failing and probes it again once
its timeout expires. A Group keeps one breaker per host so a single broken
origin does not block loads from the others.

# Usage

	group := resilience.NewGroup("fetch", resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	body, err := resilience.Execute(group.Get(host), func() ([]byte, error) {
		return fetch(ctx, url)
	})

Cancelled requests (context.Canceled) are not counted as failures.

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
