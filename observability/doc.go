// Package observability records cluster-wide lifecycle metrics through
// OpenTelemetry. [MetricsExtension] implements the ext hooks and counts
// submissions, assignments, completions, rejections and lost workers, and
// samples queue depth on every status report.
//
// For per-job countdown tracing and metrics, see middleware.Tracing and
// middleware.Metrics.
package observability
