package middleware

import (
	"context"

	"github.com/Timo4ey/distributed-system-simulation/job"
)

// Handler is the terminal function that runs the job countdown.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler. It must call next unless it deliberately
// short-circuits.
type Middleware func(ctx context.Context, j *job.Job, next Handler) error

// Chain composes middleware into one. The first element is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			inner := h
			h = func(ctx context.Context) error {
				return mw(ctx, j, inner)
			}
		}
		return h(ctx)
	}
}
