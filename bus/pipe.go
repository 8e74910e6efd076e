package bus

import (
	"context"
	"sync"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/command"
)

// Pipe is an in-memory Bus endpoint. Pipes are created in connected pairs
// by NewPipe and are used for workers running as goroutines.
type Pipe struct {
	in   *inbox
	out  *inbox
	once sync.Once
}

var _ Bus = (*Pipe)(nil)

// NewPipe returns two connected endpoints. Whatever one sends, the other
// receives.
func NewPipe() (*Pipe, *Pipe) {
	a, b := newInbox(), newInbox()
	return &Pipe{in: a, out: b}, &Pipe{in: b, out: a}
}

func (p *Pipe) Send(ctx context.Context, cmd *command.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.out.put(cmd) {
		return ErrClosed
	}
	return nil
}

func (p *Pipe) Receive(ctx context.Context) (*command.Command, error) {
	return p.in.take(ctx)
}

func (p *Pipe) Poll(ctx context.Context, timeout time.Duration) (bool, error) {
	return p.in.poll(ctx, timeout)
}

// Close shuts both directions. The peer still receives commands sent
// before Close.
func (p *Pipe) Close() error {
	p.once.Do(func() {
		p.out.close()
		p.in.close()
	})
	return nil
}
