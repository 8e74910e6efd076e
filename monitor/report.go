package monitor

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/console"
)

// Status is one worker's answer to a status request.
type Status struct {
	Name      string
	Remaining int
}

// Report is the result of one monitor tick.
type Report struct {
	// Statuses holds the replies received in time, sorted by name.
	Statuses []Status
	// Missing names workers asked but silent before the timeout.
	Missing []string
	// Lost names workers whose channel is closed.
	Lost []string

	QueueDepth int
	// Next is the worker predicted to take the next queued job, empty when
	// the queue is empty.
	Next string
	// Finishing names workers at or under the near-completion threshold,
	// excluding Next.
	Finishing []string

	At time.Time
}

// Predict picks the worker with the least remaining work as next for the
// queue, only when the queue is non-empty, and flags every busy worker
// with remaining <= threshold as finishing. statuses must be sorted by
// name; ties go to the first.
func Predict(statuses []Status, queueDepth, threshold int) (next string, finishing []string) {
	if queueDepth > 0 && len(statuses) > 0 {
		best := statuses[0]
		for _, s := range statuses[1:] {
			if s.Remaining < best.Remaining {
				best = s
			}
		}
		next = best.Name
	}

	for _, s := range statuses {
		if s.Remaining > 0 && s.Remaining <= threshold && s.Name != next {
			finishing = append(finishing, s.Name)
		}
	}
	return next, finishing
}

// SortStatuses orders statuses by worker name.
func SortStatuses(statuses []Status) {
	slices.SortFunc(statuses, func(a, b Status) int { return CompareNames(a.Name, b.Name) })
}

// CompareNames orders worker names so that "Worker 2" sorts before
// "Worker 10". Names without a numeric suffix compare as plain strings.
func CompareNames(a, b string) int {
	pa, na, oka := splitNumber(a)
	pb, nb, okb := splitNumber(b)
	if oka && okb && pa == pb {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func splitNumber(s string) (prefix string, n int, ok bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}

// Render formats a report for the console, styled through p.
func Render(r Report, p *console.Printer) []string {
	type row struct {
		name string
		text string
	}
	rows := make([]row, 0, len(r.Statuses)+len(r.Missing)+len(r.Lost))
	for _, s := range r.Statuses {
		text := p.Sprint(console.Success, "idle")
		if s.Remaining > 0 {
			text = p.Sprint(console.Info, fmt.Sprintf("running, %d units remaining", s.Remaining))
		}
		rows = append(rows, row{s.Name, text})
	}
	for _, name := range r.Missing {
		rows = append(rows, row{name, p.Sprint(console.Warn, "no reply")})
	}
	for _, name := range r.Lost {
		rows = append(rows, row{name, p.Sprint(console.Error, "unavailable")})
	}
	slices.SortFunc(rows, func(a, b row) int { return CompareNames(a.name, b.name) })

	lines := []string{p.Sprint(console.Title, "Worker status:")}
	for _, rw := range rows {
		lines = append(lines, fmt.Sprintf("    %s: %s", rw.name, rw.text))
	}

	depth := "none"
	if r.QueueDepth > 0 {
		depth = fmt.Sprintf("%d pending", r.QueueDepth)
	}
	lines = append(lines, fmt.Sprintf("Job queue: %s", depth))

	if r.Next == "" && len(r.Finishing) == 0 {
		return lines
	}
	lines = append(lines, "", p.Sprint(console.Title, "Processing:"))
	if r.Next != "" {
		lines = append(lines, fmt.Sprintf(" - %s frees up next, the queued job goes to %s", r.Next, r.Next))
	}
	for _, name := range r.Finishing {
		lines = append(lines, fmt.Sprintf(" - %s is finishing its job.", name))
	}
	return lines
}
