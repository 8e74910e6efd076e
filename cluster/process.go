package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/exec"
	"slices"
	"time"

	"github.com/gobwas/ws"

	simulation "github.com/Timo4ey/distributed-system-simulation"
	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/command"
)

// Process runs every worker as a child process of the simulator binary.
type Process struct {
	binary        string
	baseArgs      []string
	env           []string
	transport     string
	child         ChildConfig
	stderr        io.Writer
	acceptTimeout time.Duration
	logger        *slog.Logger
}

var _ Spawner = (*Process)(nil)

// ProcessOption configures a Process spawner.
type ProcessOption func(*Process)

// WithBinary sets the executable to run. Defaults to the running binary.
func WithBinary(path string, baseArgs ...string) ProcessOption {
	return func(p *Process) {
		p.binary = path
		p.baseArgs = baseArgs
	}
}

// WithEnv appends KEY=value pairs to every child's environment.
func WithEnv(env ...string) ProcessOption {
	return func(p *Process) { p.env = append(p.env, env...) }
}

// WithTransport selects stdio or websocket.
func WithTransport(t string) ProcessOption {
	return func(p *Process) { p.transport = t }
}

// WithStderr sets where child logs go. Defaults to os.Stderr.
func WithStderr(w io.Writer) ProcessOption {
	return func(p *Process) { p.stderr = w }
}

// WithAcceptTimeout bounds how long a websocket child has to dial back.
func WithAcceptTimeout(d time.Duration) ProcessOption {
	return func(p *Process) { p.acceptTimeout = d }
}

// WithProcessLogger sets the spawner's logger.
func WithProcessLogger(l *slog.Logger) ProcessOption {
	return func(p *Process) { p.logger = l }
}

// NewProcess returns a spawner for child processes configured from child.
// The Name and Connect fields of child are filled in per worker.
func NewProcess(child ChildConfig, opts ...ProcessOption) *Process {
	p := &Process{
		transport:     simulation.TransportStdio,
		child:         child,
		stderr:        os.Stderr,
		acceptTimeout: 10 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Spawn starts the children one at a time. With the websocket transport
// each child must connect back before the next one starts.
func (p *Process) Spawn(ctx context.Context, names []string) ([]Member, error) {
	if p.binary == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate simulator binary: %w", err)
		}
		p.binary = exe
	}

	var ln net.Listener
	if p.transport == simulation.TransportWebSocket {
		var err error
		ln, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("listen for workers: %w", err)
		}
		defer ln.Close()
	}

	members := make([]Member, 0, len(names))
	for _, name := range names {
		m, err := p.spawn(ctx, name, ln)
		if err != nil {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.acceptTimeout)
			_ = StopAll(stopCtx, members)
			cancel()
			return nil, fmt.Errorf("spawn %s: %w", name, err)
		}
		members = append(members, m)
	}
	return members, nil
}

func (p *Process) spawn(ctx context.Context, name string, ln net.Listener) (Member, error) {
	cfg := p.child
	cfg.Name = name
	if ln != nil {
		cfg.Connect = (&url.URL{
			Scheme:   "ws",
			Host:     ln.Addr().String(),
			Path:     "/",
			RawQuery: url.Values{"worker": {name}}.Encode(),
		}).String()
	}

	args := append(slices.Clone(p.baseArgs), "worker")
	args = append(args, cfg.Args()...)

	//nolint:gosec // the binary and arguments come from our own configuration
	cmd := exec.Command(p.binary, args...)
	cmd.Env = append(os.Environ(), p.env...)
	cmd.Stderr = p.stderr

	busOpts := []bus.Option{
		bus.WithLogger(p.logger),
		bus.WithCodec(command.GetCodec(cfg.Codec)),
	}

	var b bus.Bus
	if ln == nil {
		// Plain pipes rather than StdoutPipe: Wait must not close the read
		// side while the bus is still draining it.
		childIn, parentOut, err := os.Pipe()
		if err != nil {
			return Member{}, err
		}
		parentIn, childOut, err := os.Pipe()
		if err != nil {
			childIn.Close()
			parentOut.Close()
			return Member{}, err
		}
		cmd.Stdin = childIn
		cmd.Stdout = childOut

		err = cmd.Start()
		childIn.Close()
		childOut.Close()
		if err != nil {
			parentIn.Close()
			parentOut.Close()
			return Member{}, fmt.Errorf("start worker process: %w", err)
		}
		b = bus.NewStream(bus.Duplex(parentIn, parentOut), busOpts...)
	} else {
		if err := cmd.Start(); err != nil {
			return Member{}, fmt.Errorf("start worker process: %w", err)
		}
		conn, err := p.accept(ctx, ln, name)
		if err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return Member{}, err
		}
		b = bus.NewWebSocket(conn, nil, bus.ServerSide, busOpts...)
	}

	exited := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(exited)
	}()

	p.logger.Debug("worker started",
		slog.String("worker", name),
		slog.String("mode", simulation.ModeProcess),
		slog.String("transport", p.transport),
		slog.Int("pid", cmd.Process.Pid),
	)

	return newMember(name, b, func(stopCtx context.Context) error {
		_ = b.Close()
		if err := cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Debug("interrupt worker process",
				slog.String("worker", name),
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-exited:
			if waitErr != nil {
				p.logger.Debug("worker process exited",
					slog.String("worker", name),
					slog.String("error", waitErr.Error()),
				)
			}
			return nil
		case <-stopCtx.Done():
			p.logger.Warn("worker process did not exit, killing", slog.String("worker", name))
			_ = cmd.Process.Kill()
			<-exited
			return fmt.Errorf("stop %s: %w", name, stopCtx.Err())
		}
	}), nil
}

// accept waits for the named child to dial back and upgrades the
// connection.
func (p *Process) accept(ctx context.Context, ln net.Listener, name string) (net.Conn, error) {
	deadline := time.Now().Add(p.acceptTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if tl, ok := ln.(*net.TCPListener); ok {
		_ = tl.SetDeadline(deadline)
	}

	conn, err := ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("accept worker connection: %w", err)
	}

	u := ws.Upgrader{
		OnRequest: func(uri []byte) error {
			parsed, err := url.ParseRequestURI(string(uri))
			if err != nil {
				return err
			}
			if got := parsed.Query().Get("worker"); got != name {
				return fmt.Errorf("expected %q, got %q", name, got)
			}
			return nil
		},
	}
	_ = conn.SetDeadline(deadline)
	if _, err := u.Upgrade(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("upgrade worker connection: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}
