package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Timo4ey/distributed-system-simulation/ext"
	"github.com/Timo4ey/distributed-system-simulation/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension      = (*MetricsExtension)(nil)
	_ ext.JobSubmitted   = (*MetricsExtension)(nil)
	_ ext.JobAssigned    = (*MetricsExtension)(nil)
	_ ext.JobCompleted   = (*MetricsExtension)(nil)
	_ ext.JobRejected    = (*MetricsExtension)(nil)
	_ ext.WorkerLost     = (*MetricsExtension)(nil)
	_ ext.ReportRendered = (*MetricsExtension)(nil)
)

const meterName = "github.com/Timo4ey/distributed-system-simulation/observability"

// MetricsExtension records lifecycle metrics.
type MetricsExtension struct {
	JobSubmitted  metric.Int64Counter
	JobAssigned   metric.Int64Counter
	JobCompleted  metric.Int64Counter
	JobRejected   metric.Int64Counter
	WorkerLost    metric.Int64Counter
	JobTurnaround metric.Float64Histogram
	QueueDepth    metric.Int64Histogram
	StatusMissing metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global
// MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on meter.
// Instrument creation errors yield noop instruments.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}
	m.JobSubmitted, _ = meter.Int64Counter("simulation.job.submitted",
		metric.WithDescription("Jobs accepted into the queue"))
	m.JobAssigned, _ = meter.Int64Counter("simulation.job.assigned",
		metric.WithDescription("RUN commands sent to workers"))
	m.JobCompleted, _ = meter.Int64Counter("simulation.job.completed",
		metric.WithDescription("DONE reports received"))
	m.JobRejected, _ = meter.Int64Counter("simulation.job.rejected",
		metric.WithDescription("RUN commands handed back by busy workers"))
	m.WorkerLost, _ = meter.Int64Counter("simulation.worker.lost",
		metric.WithDescription("Workers whose channel closed"))
	m.JobTurnaround, _ = meter.Float64Histogram("simulation.job.turnaround",
		metric.WithDescription("Time from assignment to DONE"),
		metric.WithUnit("s"))
	m.QueueDepth, _ = meter.Int64Histogram("simulation.queue.depth",
		metric.WithDescription("Pending jobs at each status report"),
		metric.WithUnit("{job}"))
	m.StatusMissing, _ = meter.Int64Counter("simulation.status.missing",
		metric.WithDescription("Workers that did not answer a status request in time"))
	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobSubmitted implements ext.JobSubmitted.
func (m *MetricsExtension) OnJobSubmitted(ctx context.Context, _ *job.Job) error {
	m.JobSubmitted.Add(ctx, 1)
	return nil
}

// OnJobAssigned implements ext.JobAssigned.
func (m *MetricsExtension) OnJobAssigned(ctx context.Context, _ *job.Job, worker string) error {
	m.JobAssigned.Add(ctx, 1, workerAttr(worker))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error {
	attrs := workerAttr(j.Worker)
	m.JobCompleted.Add(ctx, 1, attrs)
	m.JobTurnaround.Record(ctx, elapsed.Seconds(), attrs)
	return nil
}

// OnJobRejected implements ext.JobRejected.
func (m *MetricsExtension) OnJobRejected(ctx context.Context, _ *job.Job, worker string) error {
	m.JobRejected.Add(ctx, 1, workerAttr(worker))
	return nil
}

// OnWorkerLost implements ext.WorkerLost.
func (m *MetricsExtension) OnWorkerLost(ctx context.Context, worker string, _ *job.Job) error {
	m.WorkerLost.Add(ctx, 1, workerAttr(worker))
	return nil
}

// OnReportRendered implements ext.ReportRendered.
func (m *MetricsExtension) OnReportRendered(ctx context.Context, queueDepth, missing int) error {
	m.QueueDepth.Record(ctx, int64(queueDepth))
	if missing > 0 {
		m.StatusMissing.Add(ctx, int64(missing))
	}
	return nil
}

func workerAttr(worker string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("worker", worker))
}
