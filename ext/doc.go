// Package ext is the simulator's extension system.
//
// # Implementing an Extension
//
//	type Audit struct{ w io.Writer }
//
//	func (a *Audit) Name() string { return "audit" }
//
//	func (a *Audit) OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error {
//	    _, err := fmt.Fprintf(a.w, "%s done on %s in %s\n", j.ID, j.Worker, elapsed)
//	    return err
//	}
//
// # Hooks
//
//   - [JobSubmitted]: a job entered the queue
//   - [JobAssigned]: a RUN went out to a worker
//   - [JobCompleted]: a worker reported DONE
//   - [JobRejected]: a busy worker returned a RUN
//   - [WorkerLost]: a worker's channel closed
//   - [ReportRendered]: the status monitor printed a report
//   - [Shutdown]: the engine is stopping
//
// The [Registry] fans each event out to every registered extension that
// implements the corresponding interface and logs hook errors.
package ext
