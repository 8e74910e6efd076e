package cluster

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Timo4ey/distributed-system-simulation/bus"
)

// Spawner starts one worker per name.
type Spawner interface {
	// Spawn starts the workers and returns a member per name, in order. On
	// error, workers already started are stopped before returning.
	Spawn(ctx context.Context, names []string) ([]Member, error)
}

// Member is a running worker as seen from the dispatcher.
type Member struct {
	// Name is the worker's display name.
	Name string

	// Bus is the dispatcher's end of the worker's channel.
	Bus bus.Bus

	stop func(ctx context.Context) error
}

// Stop shuts the worker down. It returns once the worker is gone or ctx
// expires, whichever comes first. Calling Stop again returns the first
// result.
func (m Member) Stop(ctx context.Context) error {
	if m.stop == nil {
		return m.Bus.Close()
	}
	return m.stop(ctx)
}

func newMember(name string, b bus.Bus, stop func(ctx context.Context) error) Member {
	var (
		once sync.Once
		err  error
	)
	return Member{
		Name: name,
		Bus:  b,
		stop: func(ctx context.Context) error {
			once.Do(func() { err = stop(ctx) })
			return err
		},
	}
}

// Names returns the display names of n workers: "Worker 1" to "Worker n".
func Names(n int) []string {
	names := make([]string, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("Worker %d", i))
	}
	return names
}

// StopAll stops every member concurrently and returns the first error.
func StopAll(ctx context.Context, members []Member) error {
	var g errgroup.Group
	for _, m := range members {
		g.Go(func() error {
			return m.Stop(ctx)
		})
	}
	return g.Wait()
}
