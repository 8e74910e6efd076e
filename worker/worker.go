// Package worker implements the worker side of the cluster: a service
// object that services commands from its bus and counts down one job at a
// time.
//
// The command loop never blocks on a job. RUN starts the countdown on its
// own goroutine so STATUS_REQUEST is answered in any state. A RUN that
// arrives while a job is in flight is handed back as REJECT.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	simulation "github.com/Timo4ey/distributed-system-simulation"
	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/command"
	"github.com/Timo4ey/distributed-system-simulation/id"
	"github.com/Timo4ey/distributed-system-simulation/job"
	"github.com/Timo4ey/distributed-system-simulation/middleware"
)

// Worker executes jobs received over a bus.
type Worker struct {
	name        string
	bus         bus.Bus
	unit        time.Duration
	pollTimeout time.Duration
	mw          middleware.Middleware
	logger      *slog.Logger

	mu        sync.Mutex
	busy      bool
	remaining int
	current   *job.Job

	wg sync.WaitGroup
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the worker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithTimeUnit sets the wall-clock length of one countdown tick.
func WithTimeUnit(d time.Duration) Option {
	return func(w *Worker) { w.unit = d }
}

// WithPollTimeout bounds each wait for a command so the loop can observe
// shutdown.
func WithPollTimeout(d time.Duration) Option {
	return func(w *Worker) { w.pollTimeout = d }
}

// WithMiddleware wraps every countdown in the given middleware, outermost
// first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(w *Worker) { w.mw = middleware.Chain(mws...) }
}

// New creates a worker named name that talks over b.
func New(name string, b bus.Bus, opts ...Option) *Worker {
	w := &Worker{
		name:        name,
		bus:         b,
		unit:        time.Second,
		pollTimeout: 2 * time.Second,
		mw:          middleware.Chain(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the worker's display name.
func (w *Worker) Name() string { return w.name }

// Remaining returns the units left on the current job, 0 when idle.
func (w *Worker) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remaining
}

// Busy reports whether a job is in flight.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Serve runs the command loop until ctx is cancelled (returns nil) or the
// dispatcher side of the bus goes away (returns bus.ErrClosed). An
// in-flight countdown is cancelled and awaited before Serve returns.
func (w *Worker) Serve(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer w.wg.Wait()
	defer cancel()

	w.logger.Debug("worker serving", slog.String("worker", w.name))

	for {
		if runCtx.Err() != nil {
			return nil
		}

		ready, err := w.bus.Poll(runCtx, w.pollTimeout)
		if err != nil {
			if runCtx.Err() != nil {
				return nil
			}
			return w.closed(err)
		}
		if !ready {
			continue
		}

		cmd, err := w.bus.Receive(runCtx)
		if err != nil {
			if runCtx.Err() != nil {
				return nil
			}
			return w.closed(err)
		}

		w.handle(runCtx, cmd)
	}
}

func (w *Worker) closed(err error) error {
	if errors.Is(err, bus.ErrClosed) {
		w.logger.Info("dispatcher channel closed, worker exiting", slog.String("worker", w.name))
	}
	return err
}

func (w *Worker) handle(ctx context.Context, cmd *command.Command) {
	if err := cmd.Validate(); err != nil {
		w.logger.Warn("ignoring command",
			slog.String("worker", w.name),
			slog.String("error", err.Error()),
		)
		return
	}

	switch cmd.Kind {
	case command.KindRun:
		w.run(ctx, cmd)
	case command.KindStatusRequest:
		w.reply(ctx, command.NewStatusReply(cmd.ID, w.name, w.Remaining()))
	default:
		w.logger.Warn("ignoring command",
			slog.String("worker", w.name),
			slog.String("kind", string(cmd.Kind)),
			slog.String("error", fmt.Sprintf("%v: %s is not addressed to workers", simulation.ErrMalformedCommand, cmd.Kind)),
		)
	}
}

func (w *Worker) run(ctx context.Context, cmd *command.Command) {
	d := cmd.Run.Duration

	w.mu.Lock()
	if w.busy {
		current := w.current
		w.mu.Unlock()

		w.logger.Warn("rejecting job",
			slog.String("worker", w.name),
			slog.String("job_id", cmd.JobID),
			slog.Int("duration", d),
			slog.String("running_job_id", current.ID.String()),
			slog.String("error", simulation.ErrWorkerBusy.Error()),
		)
		w.reply(ctx, command.NewReject(cmd.JobID, d))
		return
	}

	jobID, err := id.ParseJobID(cmd.JobID)
	if err != nil {
		jobID = id.NewJobID()
	}
	j := &job.Job{ID: jobID, Duration: d, SubmittedAt: cmd.Timestamp}
	j.Assign(w.name)

	w.busy = true
	w.remaining = d
	w.current = j
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.execute(ctx, j)
	}()
}

// execute runs the countdown through the middleware, marks the worker idle
// and reports DONE. Idle is set before DONE goes out so the dispatcher's
// next RUN is never rejected.
func (w *Worker) execute(ctx context.Context, j *job.Job) {
	err := w.mw(ctx, j, w.countdown)

	w.mu.Lock()
	w.busy = false
	w.remaining = 0
	w.current = nil
	w.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		w.logger.Error("job countdown aborted",
			slog.String("worker", w.name),
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	j.Complete()
	w.reply(ctx, command.NewDone(j.ID.String()))
}

func (w *Worker) countdown(ctx context.Context) error {
	ticker := time.NewTicker(w.unit)
	defer ticker.Stop()

	for {
		w.mu.Lock()
		left := w.remaining
		w.mu.Unlock()
		if left <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		w.mu.Lock()
		w.remaining--
		w.mu.Unlock()
	}
}

func (w *Worker) reply(ctx context.Context, cmd *command.Command) {
	if err := w.bus.Send(ctx, cmd); err != nil {
		w.logger.Error("failed to send reply",
			slog.String("worker", w.name),
			slog.String("command", cmd.String()),
			slog.String("error", err.Error()),
		)
	}
}
