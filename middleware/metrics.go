package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Timo4ey/distributed-system-simulation/job"
)

const meterName = "github.com/Timo4ey/distributed-system-simulation"

// Metrics records job metrics on the global MeterProvider. With no
// provider configured the instruments are noops.
//
// Instruments:
//   - simulation.job.duration (Float64Histogram, seconds) by worker and status
//   - simulation.job.executions (Int64Counter) by worker and status
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter is Metrics with an explicit meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API hands back noop instruments.
	duration, _ := meter.Float64Histogram(
		"simulation.job.duration",
		metric.WithDescription("Wall-clock duration of a job countdown"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"simulation.job.executions",
		metric.WithDescription("Number of job countdowns executed"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, j *job.Job, next Handler) error {
		start := time.Now()
		err := next(ctx)

		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("worker", j.Worker),
			attribute.String("status", status),
		)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
