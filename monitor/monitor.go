// Package monitor samples every worker at a fixed interval, prints a
// cluster report and predicts which worker frees up next.
//
// Each tick sends one STATUS_REQUEST per available worker and waits for
// the replies for at most the status timeout. Workers that do not answer
// in time are listed as missing and the report goes out anyway. Replies
// arriving after their tick are dropped.
package monitor

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Timo4ey/distributed-system-simulation/command"
	"github.com/Timo4ey/distributed-system-simulation/dispatcher"
)

// Monitor is the periodic status sampler. It implements
// dispatcher.StatusSink.
type Monitor struct {
	state     *dispatcher.State
	interval  time.Duration
	timeout   time.Duration
	threshold int
	logger    *slog.Logger

	// pending maps a request ID to the tick waiting for its reply.
	pending *xsync.Map[string, request]
}

var _ dispatcher.StatusSink = (*Monitor)(nil)

type request struct {
	worker  string
	replies chan<- Status
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the time between reports.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithStatusTimeout bounds the wait for replies.
func WithStatusTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.timeout = d }
}

// WithThreshold sets the near-completion threshold in units.
func WithThreshold(n int) Option {
	return func(m *Monitor) { m.threshold = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// New creates a Monitor over state.
func New(state *dispatcher.State, opts ...Option) *Monitor {
	m := &Monitor{
		state:     state,
		interval:  3 * time.Second,
		timeout:   2 * time.Second,
		threshold: 4,
		logger:    slog.Default(),
		pending:   xsync.NewMap[string, request](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run reports every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		r := m.Sample(ctx)
		if ctx.Err() != nil {
			return nil
		}
		m.state.Lines(Render(r, m.state.Printer())...)
		m.state.Extensions().EmitReportRendered(ctx, r.QueueDepth, len(r.Missing))
	}
}

// Sample runs one collection round and returns the report.
func (m *Monitor) Sample(ctx context.Context) Report {
	handles := m.state.Snapshot()
	replies := make(chan Status, len(handles))

	var (
		r      = Report{}
		reqIDs []string
		asked  []dispatcher.Handle
	)
	for _, h := range handles {
		if !h.Available {
			r.Lost = append(r.Lost, h.Name)
			continue
		}
		req := command.NewStatusRequest()
		m.pending.Store(req.ID, request{worker: h.Name, replies: replies})
		if err := h.Bus.Send(ctx, req); err != nil {
			m.pending.Delete(req.ID)
			r.Missing = append(r.Missing, h.Name)
			m.logger.Warn("status request failed",
				slog.String("worker", h.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		reqIDs = append(reqIDs, req.ID)
		asked = append(asked, h)
	}

	got := make(map[string]Status, len(asked))
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

collect:
	for len(got) < len(asked) {
		select {
		case s := <-replies:
			got[s.Name] = s
		case <-timer.C:
			break collect
		case <-ctx.Done():
			break collect
		}
	}
	for _, reqID := range reqIDs {
		m.pending.Delete(reqID)
	}

	for _, h := range asked {
		s, ok := got[h.Name]
		if !ok {
			r.Missing = append(r.Missing, h.Name)
			continue
		}
		r.Statuses = append(r.Statuses, s)
		m.state.Observe(s.Name, h.Current, s.Remaining)
	}
	SortStatuses(r.Statuses)
	slices.SortFunc(r.Missing, CompareNames)
	slices.SortFunc(r.Lost, CompareNames)

	r.QueueDepth = m.state.QueueLen()
	r.Next, r.Finishing = Predict(r.Statuses, r.QueueDepth, m.threshold)
	r.At = time.Now()

	if len(r.Missing) > 0 {
		m.logger.Warn("partial status report", slog.Any("missing", r.Missing))
	}
	return r
}

// Deliver hands a STATUS_REPLY to the tick that asked for it. It returns
// false for replies nobody is waiting for.
func (m *Monitor) Deliver(reply *command.Command) bool {
	if reply.Status == nil {
		return false
	}
	req, ok := m.pending.LoadAndDelete(reply.CorrelID)
	if !ok {
		return false
	}
	select {
	case req.replies <- Status{Name: req.worker, Remaining: reply.Status.Remaining}:
		return true
	default:
		return false
	}
}

// Pending returns the number of requests still awaiting a reply.
func (m *Monitor) Pending() int {
	return m.pending.Size()
}
