package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/ext"
	"github.com/Timo4ey/distributed-system-simulation/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension    = (*Extension)(nil)
	_ ext.JobSubmitted = (*Extension)(nil)
	_ ext.JobAssigned  = (*Extension)(nil)
	_ ext.JobCompleted = (*Extension)(nil)
	_ ext.JobRejected  = (*Extension)(nil)
	_ ext.WorkerLost   = (*Extension)(nil)
	_ ext.Shutdown     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges simulator lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Job lifecycle hooks ─────────────────────────────

// OnJobSubmitted implements ext.JobSubmitted.
func (e *Extension) OnJobSubmitted(ctx context.Context, j *job.Job) error {
	return e.record(ctx, ActionJobSubmitted, SeverityInfo, OutcomeSuccess,
		ResourceJob, j.ID.String(), CategoryJob, nil,
		"duration", j.Duration,
	)
}

// OnJobAssigned implements ext.JobAssigned.
func (e *Extension) OnJobAssigned(ctx context.Context, j *job.Job, worker string) error {
	return e.record(ctx, ActionJobAssigned, SeverityInfo, OutcomeSuccess,
		ResourceJob, j.ID.String(), CategoryJob, nil,
		"duration", j.Duration,
		"worker", worker,
		"queued_ms", queuedFor(j).Milliseconds(),
	)
}

// OnJobCompleted implements ext.JobCompleted.
func (e *Extension) OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error {
	return e.record(ctx, ActionJobCompleted, SeverityInfo, OutcomeSuccess,
		ResourceJob, j.ID.String(), CategoryJob, nil,
		"duration", j.Duration,
		"worker", j.Worker,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnJobRejected implements ext.JobRejected.
func (e *Extension) OnJobRejected(ctx context.Context, j *job.Job, worker string) error {
	return e.record(ctx, ActionJobRejected, SeverityWarning, OutcomeFailure,
		ResourceJob, j.ID.String(), CategoryJob, fmt.Errorf("%s was busy", worker),
		"duration", j.Duration,
		"worker", worker,
	)
}

// ── Cluster lifecycle hooks ─────────────────────────

// OnWorkerLost implements ext.WorkerLost.
func (e *Extension) OnWorkerLost(ctx context.Context, worker string, inflight *job.Job) error {
	kv := []any{}
	if inflight != nil {
		kv = append(kv, "requeued_job_id", inflight.ID.String(), "requeued_duration", inflight.Duration)
	}
	return e.record(ctx, ActionWorkerLost, SeverityCritical, OutcomeFailure,
		ResourceWorker, worker, CategoryCluster, fmt.Errorf("channel to %s closed", worker),
		kv...,
	)
}

// OnShutdown implements ext.Shutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionShutdown, SeverityInfo, OutcomeSuccess,
		ResourceCluster, "", CategoryCluster, nil,
	)
}

func queuedFor(j *job.Job) time.Duration {
	if j.AssignedAt == nil {
		return 0
	}
	return j.AssignedAt.Sub(j.SubmittedAt)
}

// record builds an AuditEvent and sends it to the recorder. Recorder
// failures are logged and never propagate.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}
