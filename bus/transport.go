package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/command"
)

// Option configures a byte-transport endpoint.
type Option func(*transport)

// WithLogger sets the logger used for undecodable frames and read errors.
func WithLogger(l *slog.Logger) Option {
	return func(t *transport) { t.logger = l }
}

// WithCodec sets the wire codec. Both endpoints must agree.
func WithCodec(c command.Codec) Option {
	return func(t *transport) { t.codec = c }
}

// transport adapts a frame-oriented byte connection to the Bus contract.
// A reader goroutine decodes frames into the inbox; Send encodes and
// writes under a lock so frames never interleave.
type transport struct {
	codec  command.Codec
	logger *slog.Logger
	in     *inbox

	readFrame  func() ([]byte, error)
	writeFrame func([]byte) error
	closer     io.Closer

	wmu    sync.Mutex
	once   sync.Once
	closed chan struct{}
}

func newTransport(opts []Option) *transport {
	t := &transport{
		codec:  &command.MsgpackCodec{},
		logger: slog.Default(),
		in:     newInbox(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *transport) start() {
	go t.readLoop()
}

func (t *transport) readLoop() {
	defer t.in.close()

	for {
		data, err := t.readFrame()
		if err != nil {
			select {
			case <-t.closed:
			default:
				if !errors.Is(err, io.EOF) {
					t.logger.Debug("bus read stopped", slog.String("error", err.Error()))
				}
			}
			return
		}

		cmd, err := t.codec.Decode(data)
		if err != nil {
			t.logger.Warn("dropping undecodable frame",
				slog.String("codec", t.codec.Name()),
				slog.Int("bytes", len(data)),
				slog.String("error", err.Error()),
			)
			continue
		}
		t.in.put(cmd)
	}
}

func (t *transport) Send(ctx context.Context, cmd *command.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}

	data, err := t.codec.Encode(cmd)
	if err != nil {
		return fmt.Errorf("bus: encode %s: %w", cmd.Kind, err)
	}

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := t.writeFrame(data); err != nil {
		// A failed write means the peer is gone.
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

func (t *transport) Receive(ctx context.Context) (*command.Command, error) {
	return t.in.take(ctx)
}

func (t *transport) Poll(ctx context.Context, timeout time.Duration) (bool, error) {
	return t.in.poll(ctx, timeout)
}

func (t *transport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.closed)
		err = t.closer.Close()
	})
	return err
}
