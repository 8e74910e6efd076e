package dispatcher

import (
	"time"

	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/id"
	"github.com/Timo4ey/distributed-system-simulation/job"
)

// Handle is the dispatcher's view of one worker. Every field except Name,
// ID and Bus is guarded by the owning State's lock.
type Handle struct {
	Name string
	ID   id.WorkerID
	Bus  bus.Bus

	// ActiveJobs is 0 or 1.
	ActiveJobs int
	// RemainingUnits is the last known countdown: the assigned duration,
	// refreshed by status replies, reset to 0 on DONE.
	RemainingUnits int
	// Available turns false for good once the worker's channel closes.
	Available bool
	// Current is the job last sent to the worker, nil when idle.
	Current      *job.Job
	LastAssigned time.Time
}

// NewHandle creates an idle, available handle.
func NewHandle(name string, b bus.Bus) *Handle {
	return &Handle{
		Name:      name,
		ID:        id.NewWorkerID(),
		Bus:       b,
		Available: true,
	}
}

// Idle reports whether the worker can take a job.
func (h *Handle) Idle() bool {
	return h.Available && h.ActiveJobs == 0
}
