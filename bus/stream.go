package bus

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single encoded command on a stream.
const MaxFrameSize = 1 << 20

// Stream is a Bus over any ordered byte stream, typically the stdin and
// stdout pipes of a worker process. Each command is written as a 4-byte
// big-endian length followed by the encoded bytes.
type Stream struct {
	*transport
}

var _ Bus = (*Stream)(nil)

// NewStream wraps rwc and starts reading from it. Closing the Stream
// closes rwc.
func NewStream(rwc io.ReadWriteCloser, opts ...Option) *Stream {
	t := newTransport(opts)
	br := bufio.NewReader(rwc)
	t.readFrame = func() ([]byte, error) { return readLengthPrefixed(br) }
	t.writeFrame = func(data []byte) error { return writeLengthPrefixed(rwc, data) }
	t.closer = rwc
	t.start()
	return &Stream{transport: t}
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data))) //nolint:gosec // bounded by MaxFrameSize on read
	copy(buf[4:], data)
	_, err := w.Write(buf)
	return err
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("bus: frame of %d bytes exceeds limit", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}

// Duplex joins a separate reader and writer into one ReadWriteCloser.
// Close closes both halves.
func Duplex(r io.ReadCloser, w io.WriteCloser) io.ReadWriteCloser {
	return &duplex{r: r, w: w}
}

type duplex struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (d *duplex) Read(p []byte) (int, error)  { return d.r.Read(p) }
func (d *duplex) Write(p []byte) (int, error) { return d.w.Write(p) }

func (d *duplex) Close() error {
	werr := d.w.Close()
	rerr := d.r.Close()
	return errors.Join(werr, rerr)
}
