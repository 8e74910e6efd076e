// Package dispatcher is the cluster's control side: the shared State, the
// assignment loop pairing queued jobs with idle workers, and one
// persistent listener per worker consuming what the worker sends back.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/backoff"
	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/command"
	"github.com/Timo4ey/distributed-system-simulation/job"
)

// StatusSink receives STATUS_REPLY commands from listeners. Deliver
// returns false when nobody is waiting for the reply.
type StatusSink interface {
	Deliver(reply *command.Command) bool
}

// Dispatcher runs the assignment loop and worker listeners against a
// State.
type Dispatcher struct {
	state    *State
	policy   Policy
	interval time.Duration
	backoff  backoff.Strategy
	sink     StatusSink
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPolicy sets the idle-worker selection policy.
func WithPolicy(p Policy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

// WithAssignInterval sets the assignment loop's yield.
func WithAssignInterval(iv time.Duration) Option {
	return func(d *Dispatcher) { d.interval = iv }
}

// WithBackoff sets the listener re-arm delay strategy.
func WithBackoff(b backoff.Strategy) Option {
	return func(d *Dispatcher) { d.backoff = b }
}

// WithStatusSink routes status replies, normally to the monitor.
func WithStatusSink(s StatusSink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a Dispatcher.
func New(state *State, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		state:    state,
		policy:   FirstIdle{},
		interval: 50 * time.Millisecond,
		backoff:  backoff.ForUnit(time.Second),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetStatusSink routes status replies to s. Call before listeners start.
func (d *Dispatcher) SetStatusSink(s StatusSink) {
	d.sink = s
}

// State returns the shared state.
func (d *Dispatcher) State() *State { return d.state }

// Run is the assignment loop. Each iteration hands out as many queued
// jobs as there are idle workers, then yields for the assign interval.
// It returns nil when ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		for ctx.Err() == nil {
			h, j := d.state.TryAssign(d.policy)
			if h == nil {
				break
			}
			d.send(ctx, h, j)
		}

		timer.Reset(d.interval)
	}
}

func (d *Dispatcher) send(ctx context.Context, h *Handle, j *job.Job) {
	d.state.Assigned(ctx, h, j)
	err := h.Bus.Send(ctx, command.NewRun(j.ID.String(), j.Duration))
	if err == nil {
		d.state.Sent(h, j)
		return
	}

	d.state.Unassign(h, j)
	if ctx.Err() != nil {
		return
	}
	d.logger.Error("failed to send RUN",
		slog.String("worker", h.Name),
		slog.String("job_id", j.ID.String()),
		slog.String("error", err.Error()),
	)
	if errors.Is(err, bus.ErrClosed) {
		d.state.MarkLost(ctx, h.Name)
	}
}

// Listen consumes h's bus until ctx is done or the channel closes. A
// failed iteration, including a panic, is logged and the loop re-armed
// after a backoff delay. On ErrClosed the worker is marked lost and
// Listen returns nil.
func (d *Dispatcher) Listen(ctx context.Context, h *Handle) error {
	attempt := 0
	for {
		handled, err := d.listen(ctx, h)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, bus.ErrClosed) {
			d.state.MarkLost(ctx, h.Name)
			return nil
		}

		if handled > 0 {
			attempt = 0
		}
		attempt++
		delay := d.backoff.Delay(attempt)
		d.logger.Error("worker listener failed, re-arming",
			slog.String("worker", h.Name),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// listen runs one listener incarnation. It returns how many commands it
// handled and why it stopped.
func (d *Dispatcher) listen(ctx context.Context, h *Handle) (handled int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()

	for {
		cmd, err := h.Bus.Receive(ctx)
		if err != nil {
			return handled, err
		}
		d.dispatch(ctx, h, cmd)
		handled++
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, h *Handle, cmd *command.Command) {
	if err := cmd.Validate(); err != nil {
		d.logger.Warn("ignoring command from worker",
			slog.String("worker", h.Name),
			slog.String("error", err.Error()),
		)
		return
	}

	switch cmd.Kind {
	case command.KindDone:
		d.state.Complete(ctx, h.Name, cmd.JobID)
	case command.KindReject:
		d.state.Reject(ctx, h.Name, cmd.JobID, cmd.Run.Duration)
	case command.KindStatusReply:
		if d.sink == nil || !d.sink.Deliver(cmd) {
			d.logger.Debug("dropping late status reply",
				slog.String("worker", h.Name),
				slog.String("correl_id", cmd.CorrelID),
			)
		}
	default:
		d.logger.Warn("ignoring command from worker",
			slog.String("worker", h.Name),
			slog.String("kind", string(cmd.Kind)),
		)
	}
}
