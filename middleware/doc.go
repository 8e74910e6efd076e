// Package middleware provides composable middleware around a worker's job
// countdown.
//
// A [Middleware] wraps the countdown handler. Middleware are composed with
// [Chain] and applied right-to-left: the first middleware in the slice is
// the outermost wrapper.
//
//	// logging → recover → countdown
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// Built-in middleware:
//
//   - [Logging] logs job start, completion and failure
//   - [Recover] converts a panic in the countdown into an error
//   - [Tracing] wraps execution in an OpenTelemetry span
//   - [Metrics] records per-job duration and outcome counters
package middleware
