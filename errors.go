package simulation

import (
	"errors"

	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/command"
)

var (
	// Transport errors. Aliased from the leaf packages so errors.Is works
	// against either name.
	ErrChannelClosed    = bus.ErrClosed
	ErrMalformedCommand = command.ErrMalformed

	// Operator errors.
	ErrInvalidInput = errors.New("simulation: invalid input")
	ErrEmptyInput   = errors.New("simulation: empty input")
	ErrRateLimited  = errors.New("simulation: submission rate limited")

	// Cluster errors.
	ErrWorkerBusy = errors.New("simulation: worker busy")
	ErrNoWorkers  = errors.New("simulation: no workers available")
	ErrShutdown   = errors.New("simulation: shutting down")

	// Configuration errors.
	ErrInvalidConfig = errors.New("simulation: invalid config")
)
