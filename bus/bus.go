// Package bus provides the duplex, message-oriented channel that connects
// the dispatcher to each worker.
//
// A Bus is symmetric: either side may Send, Receive or Poll. The bus does
// not enforce which command kinds are legal in which direction; that is
// the protocol layer's job. Message order per endpoint is FIFO on every
// transport.
package bus

import (
	"context"
	"errors"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/command"
)

// ErrClosed is returned once the peer has terminated and every message it
// sent has been consumed.
var ErrClosed = errors.New("simulation: channel closed")

// Forever makes Poll block until a message is available.
const Forever time.Duration = -1

// Bus is one endpoint of a duplex command channel.
type Bus interface {
	// Send transmits a command to the paired endpoint. Sends are buffered
	// without bound and never wait for the peer to read.
	Send(ctx context.Context, cmd *command.Command) error

	// Receive blocks until a command is available and returns it.
	Receive(ctx context.Context) (*command.Command, error)

	// Poll reports whether a command is available within timeout without
	// consuming it. A zero timeout checks once; Forever blocks.
	Poll(ctx context.Context, timeout time.Duration) (bool, error)

	// Close terminates this endpoint. The peer drains what was already
	// sent and then observes ErrClosed.
	Close() error
}
