// Package ext defines lifecycle hooks for the simulator. Extensions are
// notified as jobs move through the cluster and can react to it:
// recording metrics, writing audit lines and so on.
//
// Each hook is a separate interface so extensions opt in only to the
// events they care about.
package ext

import (
	"context"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// JobSubmitted is called after the operator's job enters the queue.
type JobSubmitted interface {
	OnJobSubmitted(ctx context.Context, j *job.Job) error
}

// JobAssigned is called after a RUN is sent to a worker.
type JobAssigned interface {
	OnJobAssigned(ctx context.Context, j *job.Job, worker string) error
}

// JobCompleted is called when a worker reports DONE.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error
}

// JobRejected is called when a busy worker hands a RUN back.
type JobRejected interface {
	OnJobRejected(ctx context.Context, j *job.Job, worker string) error
}

// WorkerLost is called once when a worker's channel closes. inflight is
// the job it was running, already requeued, or nil.
type WorkerLost interface {
	OnWorkerLost(ctx context.Context, worker string, inflight *job.Job) error
}

// ReportRendered is called after each status report is printed.
type ReportRendered interface {
	OnReportRendered(ctx context.Context, queueDepth, missing int) error
}

// Shutdown is called once during shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
