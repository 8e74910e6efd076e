package dispatcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	simulation "github.com/Timo4ey/distributed-system-simulation"
	"github.com/Timo4ey/distributed-system-simulation/console"
	"github.com/Timo4ey/distributed-system-simulation/ext"
	"github.com/Timo4ey/distributed-system-simulation/job"
	"github.com/Timo4ey/distributed-system-simulation/queue"
)

// State owns everything the dispatcher's tasks share: the handle table,
// the job queue and console output, all behind one lock. Popping the
// queue head and marking a worker busy happen in a single critical
// section, as does appending a new job.
//
// Extension hooks are emitted after the lock is released.
type State struct {
	mu        sync.Mutex
	handles   []*Handle
	byName    map[string]*Handle
	queue     *queue.Queue
	admission *queue.Admission

	printer    *console.Printer
	extensions *ext.Registry
	logger     *slog.Logger
}

// StateOption configures a State.
type StateOption func(*State)

// WithPrinter sets the console printer.
func WithPrinter(p *console.Printer) StateOption {
	return func(s *State) { s.printer = p }
}

// WithExtensions sets the extension registry.
func WithExtensions(r *ext.Registry) StateOption {
	return func(s *State) { s.extensions = r }
}

// WithAdmission gates Submit with a rate limit.
func WithAdmission(a *queue.Admission) StateOption {
	return func(s *State) { s.admission = a }
}

// WithStateLogger sets the logger.
func WithStateLogger(l *slog.Logger) StateOption {
	return func(s *State) { s.logger = l }
}

// NewState creates a State over handles, kept in the given order.
func NewState(handles []*Handle, opts ...StateOption) *State {
	s := &State{
		handles:   handles,
		byName:    make(map[string]*Handle, len(handles)),
		queue:     queue.New(),
		admission: queue.NewAdmission(0, 0),
		printer:   console.NewPrinter(io.Discard),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extensions == nil {
		s.extensions = ext.NewRegistry(s.logger)
	}
	for _, h := range handles {
		s.byName[h.Name] = h
	}
	return s
}

// Submit queues a job of d units. When no worker is idle the operator is
// told the job is waiting.
func (s *State) Submit(ctx context.Context, d int) (*job.Job, error) {
	if d < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative, got %d", simulation.ErrInvalidInput, d)
	}
	if !s.admission.Allow() {
		return nil, simulation.ErrRateLimited
	}

	j := job.New(d)

	s.mu.Lock()
	anyAvailable, anyIdle := false, false
	for _, h := range s.handles {
		anyAvailable = anyAvailable || h.Available
		anyIdle = anyIdle || h.Idle()
	}
	if !anyAvailable {
		s.mu.Unlock()
		return nil, simulation.ErrNoWorkers
	}
	s.queue.Push(j)
	if !anyIdle {
		s.printer.Printf(console.Info, "Job with %d units added to the queue.", d)
	}
	s.mu.Unlock()

	s.logger.Debug("job submitted",
		slog.String("job_id", j.ID.String()),
		slog.Int("duration", d),
	)
	s.extensions.EmitJobSubmitted(ctx, j)
	return j, nil
}

// TryAssign atomically pops the queue head and marks the worker chosen by
// p busy with it. It returns nils when the queue is empty or no worker is
// idle; the queue is untouched in that case.
func (s *State) TryAssign(p Policy) (*Handle, *job.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Len() == 0 {
		return nil, nil
	}
	h := p.Select(s.handles)
	if h == nil {
		return nil, nil
	}

	j := s.queue.Pop()
	j.Assign(h.Name)
	h.ActiveJobs = 1
	h.RemainingUnits = j.Duration
	h.Current = j
	h.LastAssigned = time.Now()
	return h, j
}

// Assigned reports a job handed to h by TryAssign. It runs before the RUN
// is sent, so the assigned hook always precedes that job's completed hook.
func (s *State) Assigned(ctx context.Context, h *Handle, j *job.Job) {
	s.logger.Info("job assigned",
		slog.String("job_id", j.ID.String()),
		slog.String("worker", h.Name),
		slog.Int("duration", j.Duration),
	)
	s.extensions.EmitJobAssigned(ctx, j, h.Name)
}

// Sent prints the operator line for a RUN that reached the worker.
func (s *State) Sent(h *Handle, j *job.Job) {
	s.Printf(console.Success, "Job with %d units sent to %s.", j.Duration, h.Name)
}

// Unassign undoes TryAssign after a failed send: the job goes back to the
// head of the queue and the worker is idle again.
func (s *State) Unassign(h *Handle, j *job.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j.Requeue()
	s.queue.PushFront(j)
	if h.Current == j {
		h.ActiveJobs = 0
		h.RemainingUnits = 0
		h.Current = nil
	}
}

// Complete handles DONE from the named worker.
func (s *State) Complete(ctx context.Context, name, jobID string) {
	s.mu.Lock()
	h, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("DONE from unknown worker", slog.String("worker", name))
		return
	}
	j := h.Current
	if h.ActiveJobs == 0 {
		s.logger.Warn("DONE from idle worker",
			slog.String("worker", name),
			slog.String("job_id", jobID),
		)
	}
	h.ActiveJobs = 0
	h.RemainingUnits = 0
	h.Current = nil
	if j != nil {
		j.Complete()
	}
	s.mu.Unlock()

	if j == nil {
		return
	}
	if jobID != "" && j.ID.String() != jobID {
		s.logger.Warn("DONE for unexpected job",
			slog.String("worker", name),
			slog.String("job_id", jobID),
			slog.String("expected_job_id", j.ID.String()),
		)
	}
	s.logger.Info("job completed",
		slog.String("job_id", j.ID.String()),
		slog.String("worker", name),
		slog.Duration("elapsed", j.Elapsed()),
	)
	s.extensions.EmitJobCompleted(ctx, j, j.Elapsed())
}

// Reject handles REJECT from the named worker. The worker is busy with a
// job this side does not track, so the handle stays busy until its DONE
// arrives, and the returned job goes back to the head of the queue.
func (s *State) Reject(ctx context.Context, name, jobID string, d int) {
	s.mu.Lock()
	h, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("REJECT from unknown worker", slog.String("worker", name))
		return
	}

	var j *job.Job
	if h.Current != nil && h.Current.ID.String() == jobID {
		j = h.Current
		h.Current = nil
		h.RemainingUnits = 0
	} else {
		j = job.New(d)
	}
	j.Requeue()
	s.queue.PushFront(j)
	h.ActiveJobs = 1
	s.printer.Printf(console.Warn, "%s is busy, job with %d units returned to the queue.", name, d)
	s.mu.Unlock()

	s.logger.Warn("job rejected",
		slog.String("job_id", j.ID.String()),
		slog.String("worker", name),
		slog.String("error", simulation.ErrWorkerBusy.Error()),
	)
	s.extensions.EmitJobRejected(ctx, j, name)
}

// MarkLost takes the named worker out of rotation for good. A job it was
// running is requeued at the head. It returns false if the worker was
// already lost.
func (s *State) MarkLost(ctx context.Context, name string) bool {
	s.mu.Lock()
	h, ok := s.byName[name]
	if !ok || !h.Available {
		s.mu.Unlock()
		return false
	}
	h.Available = false
	h.ActiveJobs = 0
	h.RemainingUnits = 0
	inflight := h.Current
	h.Current = nil
	if inflight != nil {
		inflight.Requeue()
		s.queue.PushFront(inflight)
	}
	s.printer.Printf(console.Error, "%s is unavailable.", name)
	s.mu.Unlock()

	attrs := []any{slog.String("worker", name)}
	if inflight != nil {
		attrs = append(attrs, slog.String("requeued_job_id", inflight.ID.String()))
	}
	s.logger.Error("worker lost", attrs...)
	s.extensions.EmitWorkerLost(ctx, name, inflight)
	return true
}

// Observe records a status reply's remaining units on the handle. current
// is the job the handle held when the request went out; the reply is
// dropped if the handle has moved on to another job since.
func (s *State) Observe(name string, current *job.Job, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.byName[name]
	if !ok || h.ActiveJobs == 0 || h.Current != current {
		return
	}
	h.RemainingUnits = remaining
}

// Snapshot returns copies of all handles in bootstrap order.
func (s *State) Snapshot() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Handle, len(s.handles))
	for i, h := range s.handles {
		out[i] = *h
	}
	return out
}

// Handles returns the live handle pointers. Fields other than Name, ID and
// Bus must only be read through State methods.
func (s *State) Handles() []*Handle {
	return s.handles
}

// QueueLen returns the number of pending jobs.
func (s *State) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Pending returns the pending durations, head first.
func (s *State) Pending() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Durations()
}

// Printf writes one console line under the state lock.
func (s *State) Printf(style console.Style, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printer.Printf(style, format, args...)
}

// Lines writes a console block under the state lock.
func (s *State) Lines(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printer.Lines(lines...)
}

// Printer returns the console printer, for styling.
func (s *State) Printer() *console.Printer {
	return s.printer
}

// Extensions returns the extension registry.
func (s *State) Extensions() *ext.Registry {
	return s.extensions
}
