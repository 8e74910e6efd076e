package bus

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/Timo4ey/distributed-system-simulation/command"
)

// Side selects the WebSocket role of an endpoint. Clients mask their
// frames; servers do not.
type Side int

const (
	ClientSide Side = iota
	ServerSide
)

// WebSocket is a Bus over an upgraded WebSocket connection. MessagePack
// commands travel as binary messages, JSON commands as text messages.
type WebSocket struct {
	*transport
}

var _ Bus = (*WebSocket)(nil)

// NewWebSocket wraps an already upgraded connection. br carries bytes the
// client handshake may have read past the response (the second value
// returned by ws.Dial); pass nil on the server side.
func NewWebSocket(conn net.Conn, br *bufio.Reader, side Side, opts ...Option) *WebSocket {
	t := newTransport(opts)

	state := ws.StateClientSide
	if side == ServerSide {
		state = ws.StateServerSide
	}
	op := ws.OpBinary
	if t.codec.Name() == command.CodecNameJSON {
		op = ws.OpText
	}

	// Control frames (ping, close) are answered from the read loop, so
	// writes from both goroutines go through the same lock.
	rw := &lockedConn{Conn: conn, mu: &t.wmu}
	if br != nil {
		rw.r = io.MultiReader(br, conn)
	}

	t.readFrame = func() ([]byte, error) {
		data, _, err := wsutil.ReadData(rw, state)
		var closed wsutil.ClosedError
		if errors.As(err, &closed) {
			return nil, io.EOF
		}
		return data, err
	}
	t.writeFrame = func(data []byte) error {
		// Send already holds wmu.
		return wsutil.WriteMessage(conn, state, op, data)
	}
	t.closer = conn
	t.start()
	return &WebSocket{transport: t}
}

type lockedConn struct {
	net.Conn
	mu *sync.Mutex
	r  io.Reader
}

func (c *lockedConn) Read(p []byte) (int, error) {
	if c.r != nil {
		return c.r.Read(p)
	}
	return c.Conn.Read(p)
}

func (c *lockedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.Write(p)
}
