// Package engine wires the simulator's subsystems together: the worker
// cluster, the dispatcher and its assignment loop, the per-worker
// listeners, the status monitor, and the extension registry.
//
// The engine sits above every subsystem package and below the command
// line. It owns the lifecycle: [Engine.Start] bootstraps the cluster and
// starts the background tasks, and [Engine.Stop] tears everything down
// exactly once.
//
// # Building an Engine
//
//	cfg := simulation.DefaultConfig()
//	cfg.Workers = 3
//
//	eng, err := engine.New(cfg,
//	    engine.WithLogger(logger),
//	    engine.WithPrinter(console.NewPrinter(os.Stdout)),
//	    engine.WithExtension(myExtension),
//	)
//
//	if err := eng.Start(ctx); err != nil {
//	    return err
//	}
//	defer eng.Stop(context.Background())
//
//	_, err = eng.Submit(ctx, 5)
//
// In-process workers run the middleware chain recover, tracing, metrics,
// logging, then anything added with [WithMiddleware]. Child process workers
// are built by the "worker" subcommand and log to the parent's stderr.
package engine
