package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	simulation "github.com/Timo4ey/distributed-system-simulation"
	"github.com/Timo4ey/distributed-system-simulation/backoff"
	"github.com/Timo4ey/distributed-system-simulation/cluster"
	"github.com/Timo4ey/distributed-system-simulation/console"
	"github.com/Timo4ey/distributed-system-simulation/dispatcher"
	"github.com/Timo4ey/distributed-system-simulation/ext"
	"github.com/Timo4ey/distributed-system-simulation/job"
	mw "github.com/Timo4ey/distributed-system-simulation/middleware"
	"github.com/Timo4ey/distributed-system-simulation/monitor"
	"github.com/Timo4ey/distributed-system-simulation/observability"
	"github.com/Timo4ey/distributed-system-simulation/queue"
	"github.com/Timo4ey/distributed-system-simulation/worker"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("simulation: engine already started")

// Engine runs one simulated cluster.
type Engine struct {
	cfg        simulation.Config
	logger     *slog.Logger
	printer    *console.Printer
	extensions *ext.Registry
	exts       []ext.Extension
	spawner    cluster.Spawner
	mws        []mw.Middleware

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	mu      sync.Mutex
	started bool
	stopped bool
	members []cluster.Member
	state   *dispatcher.State
	disp    *dispatcher.Dispatcher
	mon     *monitor.Monitor
	cancel  context.CancelFunc
	group   *errgroup.Group

	stopOnce sync.Once
	stopErr  error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Every subsystem inherits it.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithPrinter sets where operator-facing output goes. Defaults to a
// printer that discards everything.
func WithPrinter(p *console.Printer) Option {
	return func(eng *Engine) { eng.printer = p }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.exts = append(eng.exts, e) }
}

// WithMiddleware adds middleware after the default chain of in-process
// workers.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithSpawner overrides the spawner chosen from the configured mode.
func WithSpawner(s cluster.Spawner) Option {
	return func(eng *Engine) { eng.spawner = s }
}

// WithTracerProvider sets a custom OTel TracerProvider for the tracing
// middleware. If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for both the metrics
// middleware and the observability extension. If not set, the global
// otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// New validates cfg and prepares an engine. Nothing runs until Start.
func New(cfg simulation.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := dispatcher.PolicyByName(cfg.Policy); err != nil {
		return nil, err
	}

	eng := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.printer == nil {
		eng.printer = console.NewPrinter(io.Discard)
	}

	eng.extensions = ext.NewRegistry(eng.logger)
	for _, e := range eng.exts {
		eng.extensions.Register(e)
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/Timo4ey/distributed-system-simulation/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	if eng.spawner == nil {
		eng.spawner = eng.defaultSpawner()
	}
	return eng, nil
}

// middleware builds the chain for in-process workers:
// recover → tracing → metrics → logging → user middleware.
func (eng *Engine) middleware() []mw.Middleware {
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer("github.com/Timo4ey/distributed-system-simulation"))
	} else {
		tracingMw = mw.Tracing()
	}

	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter("github.com/Timo4ey/distributed-system-simulation"))
	} else {
		metricsMw = mw.Metrics()
	}

	chain := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
	}
	return append(chain, eng.mws...)
}

func (eng *Engine) defaultSpawner() cluster.Spawner {
	cfg := eng.cfg
	if cfg.Mode == simulation.ModeProcess {
		return cluster.NewProcess(
			cluster.ChildConfig{
				Codec:       cfg.Codec,
				TimeUnit:    cfg.TimeUnit,
				PollTimeout: cfg.Units(cfg.PollTimeout),
				LogLevel:    cfg.LogLevel,
			},
			cluster.WithTransport(cfg.Transport),
			cluster.WithProcessLogger(eng.logger),
		)
	}
	return cluster.NewInProcess(eng.logger,
		worker.WithTimeUnit(cfg.TimeUnit),
		worker.WithPollTimeout(cfg.Units(cfg.PollTimeout)),
		worker.WithMiddleware(eng.middleware()...),
	)
}

// Start bootstraps the cluster, prints every worker as idle, and starts
// the assignment loop, one listener per worker, and the monitor. A
// bootstrap failure is returned and nothing is left running.
func (eng *Engine) Start(ctx context.Context) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	if eng.started {
		return ErrAlreadyStarted
	}
	if eng.cfg.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1 to start, got %d", simulation.ErrInvalidConfig, eng.cfg.Workers)
	}

	runCtx, cancel := context.WithCancel(ctx)

	members, err := eng.spawner.Spawn(runCtx, cluster.Names(eng.cfg.Workers))
	if err != nil {
		cancel()
		return fmt.Errorf("bootstrap cluster: %w", err)
	}

	handles := make([]*dispatcher.Handle, 0, len(members))
	for _, m := range members {
		handles = append(handles, dispatcher.NewHandle(m.Name, m.Bus))
	}

	eng.state = dispatcher.NewState(handles,
		dispatcher.WithPrinter(eng.printer),
		dispatcher.WithExtensions(eng.extensions),
		dispatcher.WithAdmission(queue.NewAdmission(eng.cfg.SubmitRate, eng.cfg.SubmitBurst)),
		dispatcher.WithStateLogger(eng.logger),
	)

	// Validated in New.
	policy, _ := dispatcher.PolicyByName(eng.cfg.Policy)
	eng.disp = dispatcher.New(eng.state,
		dispatcher.WithPolicy(policy),
		dispatcher.WithAssignInterval(eng.cfg.AssignInterval),
		dispatcher.WithBackoff(backoff.ForUnit(eng.cfg.TimeUnit)),
		dispatcher.WithLogger(eng.logger),
	)
	eng.mon = monitor.New(eng.state,
		monitor.WithInterval(eng.cfg.Units(eng.cfg.MonitorInterval)),
		monitor.WithStatusTimeout(eng.cfg.Units(eng.cfg.StatusTimeout)),
		monitor.WithThreshold(eng.cfg.NearCompletionThreshold),
		monitor.WithLogger(eng.logger),
	)
	eng.disp.SetStatusSink(eng.mon)

	initial := make([]string, 0, len(members))
	for _, m := range members {
		initial = append(initial, fmt.Sprintf("%s: idle", m.Name))
	}
	eng.state.Lines(initial...)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return eng.disp.Run(gctx) })
	g.Go(func() error { return eng.mon.Run(gctx) })
	for _, h := range handles {
		g.Go(func() error { return eng.disp.Listen(gctx, h) })
	}

	eng.members = members
	eng.cancel = cancel
	eng.group = g
	eng.started = true

	eng.logger.Info("simulation started",
		slog.Int("workers", len(members)),
		slog.String("mode", eng.cfg.Mode),
		slog.String("policy", eng.cfg.Policy),
		slog.Duration("time_unit", eng.cfg.TimeUnit),
	)
	return nil
}

// Submit queues a job of d units.
func (eng *Engine) Submit(ctx context.Context, d int) (*job.Job, error) {
	eng.mu.Lock()
	state, started, stopped := eng.state, eng.started, eng.stopped
	eng.mu.Unlock()

	if !started || stopped {
		return nil, simulation.ErrShutdown
	}
	return state.Submit(ctx, d)
}

// Stop cancels the background tasks, stops every worker within ctx, and
// emits the Shutdown hook. Only the first call does anything; later calls
// return its result.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.stopOnce.Do(func() {
		eng.stopErr = eng.stop(ctx)
	})
	return eng.stopErr
}

func (eng *Engine) stop(ctx context.Context) error {
	eng.mu.Lock()
	eng.stopped = true
	cancel, group, members := eng.cancel, eng.group, eng.members
	eng.mu.Unlock()

	if cancel == nil {
		eng.extensions.EmitShutdown(ctx)
		return nil
	}

	start := time.Now()
	cancel()

	var errs []error
	if err := group.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("background tasks: %w", err))
	}
	if err := cluster.StopAll(ctx, members); err != nil {
		errs = append(errs, fmt.Errorf("stop workers: %w", err))
	}

	eng.extensions.EmitShutdown(ctx)

	eng.logger.Info("simulation stopped",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("queued", eng.state.QueueLen()),
	)
	return errors.Join(errs...)
}

// Config returns the engine's configuration.
func (eng *Engine) Config() simulation.Config { return eng.cfg }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Printer returns the operator console.
func (eng *Engine) Printer() *console.Printer { return eng.printer }

// State returns the dispatcher state, or nil before Start.
func (eng *Engine) State() *dispatcher.State {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.state
}

// Monitor returns the status monitor, or nil before Start.
func (eng *Engine) Monitor() *monitor.Monitor {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.mon
}

// Members returns the running workers, or nil before Start.
func (eng *Engine) Members() []cluster.Member {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.members
}
