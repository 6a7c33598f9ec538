// Package resource governs the shared resources of an embedviz process.
//
//   - Requests: a weighted semaphore bounds in-flight embedding provider
//     requests and a token bucket bounds their rate.
//   - Memory: cached embedding vectors are accounted against an optional
//     hard limit (non-blocking, fail-fast).
//   - Clients: KeyedLimiter keeps one token bucket per client address for the
//     HTTP server.
//
// # Provider Requests
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentRequests: 2,
//	    RequestsPerSecond:     5,
//	})
//
//	release, err := rc.AcquireRequest(ctx)
//	if err != nil {
//	    return err
//	}
//	defer release()
//
// # Memory Management
//
//	if err := rc.AcquireMemory(int64(4 * len(vec))); err != nil {
//	    // ErrMemoryLimitExceeded - skip caching
//	}
//
// # Nil Safety
//
// All Controller methods handle a nil Controller gracefully - they become
// no-ops.
package resource
