package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/job"
)

// entry pairs a hook with the extension name captured at registration.
type entry[H any] struct {
	name string
	hook H
}

// Registry fans lifecycle events out to registered extensions. Hooks are
// type-cached at registration so each emit walks only implementors.
//
// Register before the engine starts; emits may then run concurrently.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobSubmitted   []entry[JobSubmitted]
	jobAssigned    []entry[JobAssigned]
	jobCompleted   []entry[JobCompleted]
	jobRejected    []entry[JobRejected]
	workerLost     []entry[WorkerLost]
	reportRendered []entry[ReportRendered]
	shutdown       []entry[Shutdown]
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension to every hook cache it implements.
// Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobSubmitted); ok {
		r.jobSubmitted = append(r.jobSubmitted, entry[JobSubmitted]{name, h})
	}
	if h, ok := e.(JobAssigned); ok {
		r.jobAssigned = append(r.jobAssigned, entry[JobAssigned]{name, h})
	}
	if h, ok := e.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, entry[JobCompleted]{name, h})
	}
	if h, ok := e.(JobRejected); ok {
		r.jobRejected = append(r.jobRejected, entry[JobRejected]{name, h})
	}
	if h, ok := e.(WorkerLost); ok {
		r.workerLost = append(r.workerLost, entry[WorkerLost]{name, h})
	}
	if h, ok := e.(ReportRendered); ok {
		r.reportRendered = append(r.reportRendered, entry[ReportRendered]{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, entry[Shutdown]{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitJobSubmitted notifies JobSubmitted implementors.
func (r *Registry) EmitJobSubmitted(ctx context.Context, j *job.Job) {
	for _, e := range r.jobSubmitted {
		r.check("OnJobSubmitted", e.name, e.hook.OnJobSubmitted(ctx, j))
	}
}

// EmitJobAssigned notifies JobAssigned implementors.
func (r *Registry) EmitJobAssigned(ctx context.Context, j *job.Job, worker string) {
	for _, e := range r.jobAssigned {
		r.check("OnJobAssigned", e.name, e.hook.OnJobAssigned(ctx, j, worker))
	}
}

// EmitJobCompleted notifies JobCompleted implementors.
func (r *Registry) EmitJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) {
	for _, e := range r.jobCompleted {
		r.check("OnJobCompleted", e.name, e.hook.OnJobCompleted(ctx, j, elapsed))
	}
}

// EmitJobRejected notifies JobRejected implementors.
func (r *Registry) EmitJobRejected(ctx context.Context, j *job.Job, worker string) {
	for _, e := range r.jobRejected {
		r.check("OnJobRejected", e.name, e.hook.OnJobRejected(ctx, j, worker))
	}
}

// EmitWorkerLost notifies WorkerLost implementors.
func (r *Registry) EmitWorkerLost(ctx context.Context, worker string, inflight *job.Job) {
	for _, e := range r.workerLost {
		r.check("OnWorkerLost", e.name, e.hook.OnWorkerLost(ctx, worker, inflight))
	}
}

// EmitReportRendered notifies ReportRendered implementors.
func (r *Registry) EmitReportRendered(ctx context.Context, queueDepth, missing int) {
	for _, e := range r.reportRendered {
		r.check("OnReportRendered", e.name, e.hook.OnReportRendered(ctx, queueDepth, missing))
	}
}

// EmitShutdown notifies Shutdown implementors.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		r.check("OnShutdown", e.name, e.hook.OnShutdown(ctx))
	}
}

// check logs a hook error. Hook errors never reach the caller.
func (r *Registry) check(hook, extName string, err error) {
	if err == nil {
		return
	}
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
