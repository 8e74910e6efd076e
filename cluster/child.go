package cluster

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gobwas/ws"

	simulation "github.com/Timo4ey/distributed-system-simulation"
	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/command"
	"github.com/Timo4ey/distributed-system-simulation/worker"
)

// ChildConfig describes a worker child process.
type ChildConfig struct {
	Name        string
	Connect     string // ws:// URL to dial; empty means stdin/stdout
	Codec       string
	TimeUnit    time.Duration
	PollTimeout time.Duration
	LogLevel    string
}

// Args renders c as "worker" subcommand flags.
func (c ChildConfig) Args() []string {
	args := []string{
		"-name", c.Name,
		"-codec", c.Codec,
		"-time-unit", c.TimeUnit.String(),
		"-poll-timeout", c.PollTimeout.String(),
		"-log-level", c.LogLevel,
	}
	if c.Connect != "" {
		args = append(args, "-connect", c.Connect)
	}
	return args
}

// ParseChildArgs is the inverse of Args.
func ParseChildArgs(args []string) (ChildConfig, error) {
	c := ChildConfig{
		Codec:       command.CodecNameMsgpack,
		TimeUnit:    time.Second,
		PollTimeout: 2 * time.Second,
		LogLevel:    "info",
	}

	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&c.Name, "name", "", "worker display name")
	fs.StringVar(&c.Connect, "connect", "", "WebSocket URL of the dispatcher")
	fs.StringVar(&c.Codec, "codec", c.Codec, "wire codec (msgpack|json)")
	fs.DurationVar(&c.TimeUnit, "time-unit", c.TimeUnit, "length of one job unit")
	fs.DurationVar(&c.PollTimeout, "poll-timeout", c.PollTimeout, "bound on each command wait")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return ChildConfig{}, fmt.Errorf("%w: worker flags: %v", simulation.ErrInvalidConfig, err)
	}
	if c.Name == "" {
		return ChildConfig{}, fmt.Errorf("%w: worker name is required", simulation.ErrInvalidConfig)
	}
	if c.TimeUnit <= 0 || c.PollTimeout <= 0 {
		return ChildConfig{}, fmt.Errorf("%w: time unit and poll timeout must be positive", simulation.ErrInvalidConfig)
	}
	return c, nil
}

// ServeChild runs one worker for the lifetime of a child process. It talks
// over stdin/stdout unless c.Connect names a dispatcher to dial. The
// dispatcher going away is a normal exit.
func ServeChild(ctx context.Context, c ChildConfig, stdin io.ReadCloser, stdout io.WriteCloser, logger *slog.Logger, opts ...worker.Option) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("worker", c.Name))

	busOpts := []bus.Option{
		bus.WithLogger(logger),
		bus.WithCodec(command.GetCodec(c.Codec)),
	}

	var b bus.Bus
	if c.Connect == "" {
		b = bus.NewStream(bus.Duplex(stdin, stdout), busOpts...)
	} else {
		conn, br, _, err := ws.Dial(ctx, c.Connect)
		if err != nil {
			return fmt.Errorf("dial dispatcher %s: %w", c.Connect, err)
		}
		b = bus.NewWebSocket(conn, br, bus.ClientSide, busOpts...)
	}
	defer b.Close()

	wopts := append([]worker.Option{
		worker.WithLogger(logger),
		worker.WithTimeUnit(c.TimeUnit),
		worker.WithPollTimeout(c.PollTimeout),
	}, opts...)

	err := worker.New(c.Name, b, wopts...).Serve(ctx)
	if errors.Is(err, bus.ErrClosed) {
		return nil
	}
	return err
}
