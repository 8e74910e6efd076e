package cluster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/worker"
)

// InProcess runs workers as goroutines connected by in-memory pipes.
type InProcess struct {
	opts   []worker.Option
	logger *slog.Logger
}

var _ Spawner = (*InProcess)(nil)

// NewInProcess returns a spawner that builds every worker with opts.
func NewInProcess(logger *slog.Logger, opts ...worker.Option) *InProcess {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcess{opts: opts, logger: logger}
}

// Spawn starts a worker goroutine per name. Workers stop when ctx is
// cancelled or their member is stopped.
func (p *InProcess) Spawn(ctx context.Context, names []string) ([]Member, error) {
	members := make([]Member, 0, len(names))
	for _, name := range names {
		members = append(members, p.spawn(ctx, name))
	}
	return members, nil
}

func (p *InProcess) spawn(ctx context.Context, name string) Member {
	local, remote := bus.NewPipe()
	opts := append([]worker.Option{worker.WithLogger(p.logger)}, p.opts...)
	w := worker.New(name, remote, opts...)

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- w.Serve(wctx)
	}()

	p.logger.Debug("worker started", slog.String("worker", name), slog.String("mode", "inprocess"))

	return newMember(name, local, func(stopCtx context.Context) error {
		cancel()
		defer remote.Close()
		defer local.Close()

		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			p.logger.Warn("worker did not stop in time", slog.String("worker", name))
			return fmt.Errorf("stop %s: %w", name, stopCtx.Err())
		}
	})
}
