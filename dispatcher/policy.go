package dispatcher

import (
	"fmt"

	simulation "github.com/Timo4ey/distributed-system-simulation"
)

// Policy chooses an idle worker for the queue head. Select runs under the
// State lock and must not block.
type Policy interface {
	Select(handles []*Handle) *Handle
}

// FirstIdle picks the first idle handle in bootstrap order.
type FirstIdle struct{}

// Select implements Policy.
func (FirstIdle) Select(handles []*Handle) *Handle {
	for _, h := range handles {
		if h.Idle() {
			return h
		}
	}
	return nil
}

// RoundRobin starts each search after the last worker it picked.
type RoundRobin struct {
	next int
}

// Select implements Policy.
func (r *RoundRobin) Select(handles []*Handle) *Handle {
	n := len(handles)
	for i := range n {
		idx := (r.next + i) % n
		if handles[idx].Idle() {
			r.next = (idx + 1) % n
			return handles[idx]
		}
	}
	return nil
}

// PolicyByName maps a config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", simulation.PolicyFirstIdle:
		return FirstIdle{}, nil
	case simulation.PolicyRoundRobin:
		return &RoundRobin{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", simulation.ErrInvalidConfig, name)
	}
}
