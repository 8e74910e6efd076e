package bus_test

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/bus"
	"github.com/Timo4ey/distributed-system-simulation/command"
)

func TestStream_SkipsUndecodableFrame(t *testing.T) {
	raw, peer := net.Pipe()
	b := bus.NewStream(peer)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		garbage := []byte{0xc1, 0xc1, 0xc1}
		writeFrame(t, raw, garbage)

		good, err := (&command.MsgpackCodec{}).Encode(command.NewDone("job_1"))
		if err != nil {
			t.Errorf("encode: %v", err)
			return
		}
		writeFrame(t, raw, good)
	}()

	cmd, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if cmd.Kind != command.KindDone {
		t.Errorf("kind = %q, want DONE", cmd.Kind)
	}
	_ = raw.Close()
}

func writeFrame(t *testing.T, conn net.Conn, data []byte) {
	t.Helper()
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))
	if _, err := conn.Write(append(header, data...)); err != nil {
		t.Errorf("write frame: %v", err)
	}
}
