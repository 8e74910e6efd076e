package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/job"
)

// Logging logs when a job starts and how it ended.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		logger.Info("job started",
			slog.String("job_id", j.ID.String()),
			slog.String("worker", j.Worker),
			slog.Int("duration", j.Duration),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job failed",
				slog.String("job_id", j.ID.String()),
				slog.String("worker", j.Worker),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
			return err
		}

		logger.Info("job completed",
			slog.String("job_id", j.ID.String()),
			slog.String("worker", j.Worker),
			slog.Duration("elapsed", elapsed),
		)
		return nil
	}
}
