// Package simulation models a small job-processing cluster: one dispatcher
// feeding a FIFO queue of jobs, each just a duration in time units, to a
// fixed pool of single-job workers over private duplex message buses.
//
// # Architecture
//
// The dispatcher side owns all shared state through [dispatcher.State]: the
// worker handle table, the job queue and serialized console output, all
// behind one lock. Three kinds of activity run against it:
//
//   - the assignment loop pairs the queue head with an idle worker
//   - one listener per worker consumes DONE, REJECT and STATUS_REPLY
//   - the status monitor periodically asks every worker for its state,
//     prints a report and predicts which worker frees up next
//
// Workers are service objects ([worker.Worker]) run either as goroutines
// over an in-memory pipe or as child processes over stdio or WebSocket.
//
// # Quick Start
//
//	cfg := simulation.DefaultConfig()
//	cfg.Workers = 3
//	eng, err := engine.New(cfg)
//	if err != nil { ... }
//	if err := eng.Start(ctx); err != nil { ... }
//	defer eng.Stop(context.Background())
//	_ = eng.Submit(5)
//
// All entity IDs use TypeID: type-prefixed, K-sortable, UUIDv7-based.
package simulation
