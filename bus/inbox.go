package bus

import (
	"context"
	"sync"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/command"
)

// inbox is an unbounded FIFO of received commands. Waiters block on the
// notify channel, which is closed and replaced on every state change.
type inbox struct {
	mu     sync.Mutex
	items  []*command.Command
	closed bool
	notify chan struct{}
}

func newInbox() *inbox {
	return &inbox{notify: make(chan struct{})}
}

// put appends cmd. It returns false if the inbox is already closed.
func (b *inbox) put(cmd *command.Command) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.items = append(b.items, cmd)
	b.wake()
	return true
}

func (b *inbox) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.wake()
}

// wake must be called with mu held.
func (b *inbox) wake() {
	close(b.notify)
	b.notify = make(chan struct{})
}

// state returns whether a command is queued, whether the inbox is closed,
// and the channel to wait on for the next change.
func (b *inbox) state() (ready, closed bool, changed <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) > 0, b.closed, b.notify
}

func (b *inbox) take(ctx context.Context) (*command.Command, error) {
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			cmd := b.items[0]
			b.items[0] = nil
			b.items = b.items[1:]
			b.mu.Unlock()
			return cmd, nil
		}
		if b.closed {
			b.mu.Unlock()
			return nil, ErrClosed
		}
		changed := b.notify
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

func (b *inbox) poll(ctx context.Context, timeout time.Duration) (bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		ready, closed, changed := b.state()
		switch {
		case ready:
			return true, nil
		case closed:
			return false, ErrClosed
		case timeout == 0:
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-expired:
			return false, nil
		case <-changed:
		}
	}
}
