package monitor_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/command"
	"github.com/Timo4ey/distributed-system-simulation/console"
	"github.com/Timo4ey/distributed-system-simulation/dispatcher"
	"github.com/Timo4ey/distributed-system-simulation/monitor"
	"github.com/Timo4ey/distributed-system-simulation/worker"
)

const unit = 20 * time.Millisecond

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type rig struct {
	state *dispatcher.State
	mon   *monitor.Monitor
	peers map[string]bus.Bus
}

// newRig starts a dispatcher with one handle per name. Names listed in
// silent get no worker behind them.
func newRig(t *testing.T, names []string, silent ...string) *rig {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	r := &rig{peers: map[string]bus.Bus{}}
	var handles []*dispatcher.Handle
	for _, name := range names {
		local, remote := bus.NewPipe()
		handles = append(handles, dispatcher.NewHandle(name, local))
		r.peers[name] = remote
		if slices.Contains(silent, name) {
			continue
		}
		w := worker.New(name, remote,
			worker.WithLogger(quietLogger()),
			worker.WithTimeUnit(unit),
			worker.WithPollTimeout(2*unit),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Serve(ctx)
		}()
	}

	r.state = dispatcher.NewState(handles,
		dispatcher.WithPrinter(console.NewPrinter(io.Discard, console.WithPlain())),
		dispatcher.WithStateLogger(quietLogger()),
	)
	r.mon = monitor.New(r.state,
		monitor.WithInterval(3*unit),
		monitor.WithStatusTimeout(2*unit),
		monitor.WithLogger(quietLogger()),
	)
	d := dispatcher.New(r.state,
		dispatcher.WithAssignInterval(unit/4),
		dispatcher.WithStatusSink(r.mon),
		dispatcher.WithLogger(quietLogger()),
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = d.Run(ctx)
	}()
	for _, h := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Listen(ctx, h)
		}()
	}

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return r
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name          string
		statuses      []monitor.Status
		depth         int
		threshold     int
		wantNext      string
		wantFinishing []string
	}{
		{
			name:          "empty queue has no next",
			statuses:      []monitor.Status{{"Worker 1", 3}, {"Worker 2", 7}},
			depth:         0,
			threshold:     4,
			wantNext:      "",
			wantFinishing: []string{"Worker 1"},
		},
		{
			name:          "next is smallest remaining and not flagged",
			statuses:      []monitor.Status{{"Worker 1", 2}, {"Worker 2", 1}},
			depth:         1,
			threshold:     4,
			wantNext:      "Worker 2",
			wantFinishing: []string{"Worker 1"},
		},
		{
			name:          "ties go to first by name",
			statuses:      []monitor.Status{{"Worker 1", 5}, {"Worker 2", 5}},
			depth:         2,
			threshold:     4,
			wantNext:      "Worker 1",
			wantFinishing: nil,
		},
		{
			name:          "idle workers are not finishing",
			statuses:      []monitor.Status{{"Worker 1", 0}, {"Worker 2", 4}, {"Worker 3", 5}},
			depth:         1,
			threshold:     4,
			wantNext:      "Worker 1",
			wantFinishing: []string{"Worker 2"},
		},
		{
			name:          "threshold is configurable",
			statuses:      []monitor.Status{{"Worker 1", 6}, {"Worker 2", 9}},
			depth:         0,
			threshold:     8,
			wantNext:      "",
			wantFinishing: []string{"Worker 1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, finishing := monitor.Predict(tt.statuses, tt.depth, tt.threshold)
			if next != tt.wantNext {
				t.Errorf("next = %q, want %q", next, tt.wantNext)
			}
			if !slices.Equal(finishing, tt.wantFinishing) {
				t.Errorf("finishing = %v, want %v", finishing, tt.wantFinishing)
			}
		})
	}
}

func TestCompareNames(t *testing.T) {
	names := []string{"Worker 10", "Worker 2", "Worker 1", "Alpha"}
	slices.SortFunc(names, monitor.CompareNames)
	want := []string{"Alpha", "Worker 1", "Worker 2", "Worker 10"}
	if !slices.Equal(names, want) {
		t.Errorf("sorted = %v, want %v", names, want)
	}
}

func TestRender(t *testing.T) {
	p := console.NewPrinter(io.Discard, console.WithPlain())
	r := monitor.Report{
		Statuses:   []monitor.Status{{"Worker 1", 2}, {"Worker 3", 0}},
		Missing:    []string{"Worker 2"},
		Lost:       []string{"Worker 4"},
		QueueDepth: 1,
		Next:       "Worker 3",
		Finishing:  []string{"Worker 1"},
	}
	got := strings.Join(monitor.Render(r, p), "\n")
	want := strings.Join([]string{
		"Worker status:",
		"    Worker 1: running, 2 units remaining",
		"    Worker 2: no reply",
		"    Worker 3: idle",
		"    Worker 4: unavailable",
		"Job queue: 1 pending",
		"",
		"Processing:",
		" - Worker 3 frees up next, the queued job goes to Worker 3",
		" - Worker 1 is finishing its job.",
	}, "\n")
	if got != want {
		t.Errorf("Render:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_EmptyQueue(t *testing.T) {
	p := console.NewPrinter(io.Discard, console.WithPlain())
	lines := monitor.Render(monitor.Report{Statuses: []monitor.Status{{"Worker 1", 0}}}, p)
	if lines[len(lines)-1] != "Job queue: none" {
		t.Errorf("last line = %q, want %q", lines[len(lines)-1], "Job queue: none")
	}
}

func TestSample_AllReply(t *testing.T) {
	r := newRig(t, []string{"Worker 2", "Worker 1", "Worker 3"})

	start := time.Now()
	rep := r.mon.Sample(context.Background())
	if time.Since(start) >= 2*unit {
		t.Errorf("sample waited for the timeout although all workers replied")
	}
	if len(rep.Missing) != 0 {
		t.Fatalf("missing = %v", rep.Missing)
	}
	var names []string
	for _, s := range rep.Statuses {
		names = append(names, s.Name)
		if s.Remaining != 0 {
			t.Errorf("%s remaining = %d, want 0", s.Name, s.Remaining)
		}
	}
	if !slices.Equal(names, []string{"Worker 1", "Worker 2", "Worker 3"}) {
		t.Errorf("statuses not sorted by name: %v", names)
	}
	if r.mon.Pending() != 0 {
		t.Errorf("pending = %d after sample", r.mon.Pending())
	}
}

func TestSample_PartialReportOnTimeout(t *testing.T) {
	r := newRig(t, []string{"Worker 1", "Worker 2"}, "Worker 2")

	start := time.Now()
	rep := r.mon.Sample(context.Background())
	elapsed := time.Since(start)

	if elapsed < 2*unit || elapsed > 10*unit {
		t.Errorf("sample took %v, want about the %v timeout", elapsed, 2*unit)
	}
	if !slices.Equal(rep.Missing, []string{"Worker 2"}) {
		t.Errorf("missing = %v, want [Worker 2]", rep.Missing)
	}
	if len(rep.Statuses) != 1 || rep.Statuses[0].Name != "Worker 1" {
		t.Errorf("statuses = %v", rep.Statuses)
	}

	// The silent worker's request is still in its inbox; a reply now is late.
	req, err := r.peers["Worker 2"].Receive(context.Background())
	if err != nil {
		t.Fatalf("receive request: %v", err)
	}
	if r.mon.Deliver(command.NewStatusReply(req.ID, "Worker 2", 0)) {
		t.Error("late reply should be dropped")
	}
}

func TestDeliver_UnknownCorrelation(t *testing.T) {
	r := newRig(t, nil)
	if r.mon.Deliver(command.NewStatusReply("msg_unknown", "Worker 1", 3)) {
		t.Error("reply without a pending request should be dropped")
	}
}

func TestSample_ScenarioPrediction(t *testing.T) {
	r := newRig(t, []string{"Worker 1", "Worker 2"})
	ctx := context.Background()

	for _, d := range []int{5, 3, 8} {
		if _, err := r.state.Submit(ctx, d); err != nil {
			t.Fatalf("Submit(%d): %v", d, err)
		}
	}

	// Midway through the third unit: Worker 1 has ~3 left, Worker 2 ~1,
	// and the 8 is still queued.
	time.Sleep(5 * unit / 2)
	rep := r.mon.Sample(ctx)

	if len(rep.Statuses) != 2 {
		t.Fatalf("statuses = %v", rep.Statuses)
	}
	w1, w2 := rep.Statuses[0], rep.Statuses[1]
	if w1.Remaining < 2 || w1.Remaining > 4 {
		t.Errorf("Worker 1 remaining = %d, want about 3", w1.Remaining)
	}
	if w2.Remaining < 0 || w2.Remaining > 2 {
		t.Errorf("Worker 2 remaining = %d, want about 1", w2.Remaining)
	}
	if rep.QueueDepth != 1 {
		t.Fatalf("queue depth = %d, want 1", rep.QueueDepth)
	}
	if rep.Next != "Worker 2" {
		t.Errorf("next = %q, want Worker 2", rep.Next)
	}
	if !slices.Contains(rep.Finishing, "Worker 1") {
		t.Errorf("finishing = %v, want Worker 1 flagged", rep.Finishing)
	}
	if slices.Contains(rep.Finishing, rep.Next) {
		t.Errorf("next worker %q also flagged as finishing", rep.Next)
	}

	lines := monitor.Render(rep, console.NewPrinter(io.Discard, console.WithPlain()))
	running := false
	for _, l := range lines {
		if strings.HasPrefix(l, "    Worker 1: running, ") && strings.HasSuffix(l, " units remaining") {
			running = true
		}
	}
	if !running {
		t.Errorf("no running line for Worker 1 in %q", lines)
	}
	if !slices.Contains(lines, "Job queue: 1 pending") {
		t.Errorf("no queue depth line in %q", lines)
	}
}

func TestRun_PrintsReports(t *testing.T) {
	out := &strings.Builder{}
	var mu sync.Mutex
	w := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return out.Write(p)
	})

	local, remote := bus.NewPipe()
	h := dispatcher.NewHandle("Worker 1", local)
	state := dispatcher.NewState([]*dispatcher.Handle{h},
		dispatcher.WithPrinter(console.NewPrinter(w, console.WithPlain())),
		dispatcher.WithStateLogger(quietLogger()),
	)
	mon := monitor.New(state,
		monitor.WithInterval(2*unit),
		monitor.WithStatusTimeout(unit),
		monitor.WithLogger(quietLogger()),
	)
	d := dispatcher.New(state, dispatcher.WithStatusSink(mon), dispatcher.WithLogger(quietLogger()))
	wk := worker.New("Worker 1", remote, worker.WithLogger(quietLogger()), worker.WithTimeUnit(unit))

	ctx, cancel := context.WithTimeout(context.Background(), 7*unit)
	defer cancel()
	var wg sync.WaitGroup
	for _, fn := range []func(context.Context) error{
		wk.Serve,
		mon.Run,
		func(ctx context.Context) error { return d.Listen(ctx, h) },
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fn(ctx)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if n := strings.Count(out.String(), "Worker status:"); n < 2 {
		t.Errorf("expected at least 2 reports, got %d:\n%s", n, out.String())
	}
	if !strings.Contains(out.String(), "    Worker 1: idle") {
		t.Errorf("report missing idle line:\n%s", out.String())
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
