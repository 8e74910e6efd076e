package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Timo4ey/distributed-system-simulation/job"
)

// Recover converts a panic in the chain into an error and logs the stack.
// A panicking countdown must not take the worker process down with it.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("job countdown panicked",
					slog.String("job_id", j.ID.String()),
					slog.String("worker", j.Worker),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				retErr = fmt.Errorf("panic in job %s: %v", j.ID, r)
			}
		}()
		return next(ctx)
	}
}
