// Command simulator runs a simulated job-processing cluster from the
// terminal.
//
// Usage:
//
//	simulator [run] [-config file] [-workers n] [-mode inprocess|process] ...
//	simulator worker -name "Worker 1" [-connect ws://...] [-codec msgpack]
//
// "run" is the operator console: it starts the cluster and reads job
// durations from stdin until EOF or an interrupt. "worker" is the child
// process entry used by process mode and is not meant to be run by hand.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	simulation "github.com/Timo4ey/distributed-system-simulation"
	audithook "github.com/Timo4ey/distributed-system-simulation/audit_hook"
	"github.com/Timo4ey/distributed-system-simulation/cluster"
	"github.com/Timo4ey/distributed-system-simulation/console"
	"github.com/Timo4ey/distributed-system-simulation/engine"
	"github.com/Timo4ey/distributed-system-simulation/middleware"
	"github.com/Timo4ey/distributed-system-simulation/worker"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := realMain(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func realMain(ctx context.Context, args []string, stdin io.ReadCloser, stdout io.WriteCloser, stderr io.Writer) int {
	sub := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	var err error
	switch sub {
	case "run":
		err = runSimulator(ctx, args, stdin, stdout, stderr)
	case "worker":
		err = runWorker(ctx, args, stdin, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q (want run or worker)\n", sub)
		return exitUsage
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, simulation.ErrInvalidConfig), errors.Is(err, flag.ErrHelp):
		fmt.Fprintf(stderr, "simulator %s: %v\n", sub, err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "simulator %s: %v\n", sub, err)
		return exitError
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := simulation.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// loadConfig reads the config file, if any, and applies the flags the
// operator set explicitly on top of it.
func loadConfig(args []string, stderr io.Writer) (simulation.Config, bool, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath = fs.String("config", "", "YAML configuration file")
		workers    = fs.Int("workers", 0, "number of workers (asked for when unset)")
		mode       = fs.String("mode", "", "inprocess or process")
		transport  = fs.String("transport", "", "stdio or websocket (process mode)")
		codec      = fs.String("codec", "", "msgpack or json (process mode)")
		policy     = fs.String("policy", "", "first-idle or round-robin")
		timeUnit   = fs.Duration("time-unit", 0, "wall-clock length of one job unit")
		logLevel   = fs.String("log-level", "", "debug, info, warn or error")
		auditLog   = fs.String("audit-log", "", "append JSON audit events to this file")
		plain      = fs.Bool("plain", false, "disable styled output")
	)
	if err := fs.Parse(args); err != nil {
		return simulation.Config{}, false, err
	}

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configPath); err != nil {
			return cfg, false, err
		}
	} else {
		// No file: the worker count comes from the flag or the operator.
		cfg.Workers = 0
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = *workers
		case "mode":
			cfg.Mode = *mode
		case "transport":
			cfg.Transport = *transport
		case "codec":
			cfg.Codec = *codec
		case "policy":
			cfg.Policy = *policy
		case "time-unit":
			cfg.TimeUnit = *timeUnit
		case "log-level":
			cfg.LogLevel = *logLevel
		case "audit-log":
			cfg.AuditLog = *auditLog
		}
	})
	return cfg, *plain, cfg.Validate()
}

// askWorkers prompts until the operator enters a positive whole number.
func askWorkers(r *bufio.Reader, p *console.Printer) (int, error) {
	for {
		p.Prompt("Number of workers: ")
		line, err := r.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" {
			n, convErr := strconv.Atoi(s)
			if convErr == nil && n > 0 {
				return n, nil
			}
			p.Printf(console.Error, "Input error: %q is not a positive whole number", s)
		}
		if err != nil {
			return 0, fmt.Errorf("read worker count: %w", err)
		}
	}
}

func runSimulator(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, plain, err := loadConfig(args, stderr)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	var printerOpts []console.PrinterOption
	if plain {
		printerOpts = append(printerOpts, console.WithPlain())
	}
	printer := console.NewPrinter(stdout, printerOpts...)
	printer.Printf(console.Title, "Welcome to the distributed system simulator.")

	in := bufio.NewReader(stdin)
	if cfg.Workers == 0 {
		if cfg.Workers, err = askWorkers(in, printer); err != nil {
			return err
		}
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithPrinter(printer),
	}
	if cfg.AuditLog != "" {
		f, err := os.OpenFile(cfg.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer f.Close()
		opts = append(opts, engine.WithExtension(
			audithook.New(audithook.NewJSONRecorder(f), audithook.WithLogger(logger)),
		))
	}

	eng, err := engine.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}

	submit := func(d int) error {
		_, err := eng.Submit(ctx, d)
		return err
	}
	loopErr := console.ReadLoop(ctx, in, submit, printer)

	printer.Printf(console.Muted, "Trying to close opened processes...")
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	stopErr := eng.Stop(stopCtx)
	printer.Printf(console.Muted, "All processes closed.")

	return errors.Join(loopErr, stopErr)
}

func runWorker(ctx context.Context, args []string, stdin io.ReadCloser, stdout io.WriteCloser, stderr io.Writer) error {
	cfg, err := cluster.ParseChildArgs(args)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	start := time.Now()
	err = cluster.ServeChild(ctx, cfg, stdin, stdout, logger,
		worker.WithMiddleware(
			middleware.Recover(logger),
			middleware.Logging(logger),
		),
	)
	logger.Debug("worker process exiting",
		slog.String("worker", cfg.Name),
		slog.Duration("uptime", time.Since(start)),
	)
	return err
}
