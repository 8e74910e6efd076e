// Package job defines the unit of work moved through the cluster. A job is
// represented solely by its duration in time units; the remaining fields
// track where it is in its lifecycle.
package job

import (
	"time"

	"github.com/Timo4ey/distributed-system-simulation/id"
)

// State represents the lifecycle state of a job.
type State string

const (
	// StateQueued means the job waits in the dispatcher's queue.
	StateQueued State = "queued"
	// StateRunning means a worker accepted the job and is counting down.
	StateRunning State = "running"
	// StateCompleted means the worker reported DONE.
	StateCompleted State = "completed"
)

// Job is a submitted duration plus bookkeeping.
type Job struct {
	ID          id.JobID   `json:"id"`
	Duration    int        `json:"duration"`
	State       State      `json:"state"`
	Worker      string     `json:"worker,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// New creates a queued job of the given duration.
func New(duration int) *Job {
	return &Job{
		ID:          id.NewJobID(),
		Duration:    duration,
		State:       StateQueued,
		SubmittedAt: time.Now().UTC(),
	}
}

// Assign marks the job as running on the named worker.
func (j *Job) Assign(worker string) {
	now := time.Now().UTC()
	j.State = StateRunning
	j.Worker = worker
	j.AssignedAt = &now
}

// Requeue returns a rejected job to the queued state.
func (j *Job) Requeue() {
	j.State = StateQueued
	j.Worker = ""
	j.AssignedAt = nil
}

// Complete marks the job as finished.
func (j *Job) Complete() {
	now := time.Now().UTC()
	j.State = StateCompleted
	j.CompletedAt = &now
}

// Elapsed returns the time between assignment and completion, or zero if
// either is missing.
func (j *Job) Elapsed() time.Duration {
	if j.AssignedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.AssignedAt)
}
