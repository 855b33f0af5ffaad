// Package middleware provides ready-made middleware for the client package:
// structured request logging, per-request timeouts, and opt-in retries with
// exponential backoff.
//
// Each constructor returns a client.MiddlewareConfig covering both the
// synchronous and (where it makes sense) the streaming call path. The default
// client carries no middleware; callers compose what they need:
//
//	c, err := client.New(provider,
//	    client.WithMiddlewares(
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	        middleware.NewTimeoutMiddleware(60*time.Second),
//	    ),
//	)
package middleware
