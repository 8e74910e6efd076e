package console_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	simulation "github.com/Timo4ey/distributed-system-simulation"
	"github.com/Timo4ey/distributed-system-simulation/console"
)

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"5", 5, nil},
		{"  12 \n", 12, nil},
		{"0", 0, nil},
		{"", 0, simulation.ErrEmptyInput},
		{"   ", 0, simulation.ErrEmptyInput},
		{"abc", 0, simulation.ErrInvalidInput},
		{"3.5", 0, simulation.ErrInvalidInput},
		{"-2", 0, simulation.ErrInvalidInput},
		{"5 6", 0, simulation.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := console.ParseDuration(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseDuration(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrinter_LinesAreAtomic(t *testing.T) {
	var out syncBuffer
	p := console.NewPrinter(&out, console.WithPlain())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag := fmt.Sprintf("block-%d", i)
			p.Lines(tag+" a", tag+" b", tag+" c")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 60 {
		t.Fatalf("expected 60 lines, got %d", len(lines))
	}
	for i := 0; i < len(lines); i += 3 {
		tag := strings.Fields(lines[i])[0]
		if lines[i+1] != tag+" b" || lines[i+2] != tag+" c" {
			t.Fatalf("block %s interleaved: %q", tag, lines[i:i+3])
		}
	}
}

func TestPrinter_PlainPrintf(t *testing.T) {
	var out syncBuffer
	p := console.NewPrinter(&out, console.WithPlain())
	p.Printf(console.Success, "Worker %d: idle", 1)
	if got := out.String(); got != "Worker 1: idle\n" {
		t.Errorf("Printf wrote %q", got)
	}
}

func TestReadLoop_SubmitsValidInput(t *testing.T) {
	var out syncBuffer
	p := console.NewPrinter(&out, console.WithPlain())

	var got []int
	submit := func(d int) error {
		got = append(got, d)
		return nil
	}

	in := strings.NewReader("5\n\nabc\n3\n-1\n8\n")
	if err := console.ReadLoop(context.Background(), in, submit, p); err != nil {
		t.Fatalf("ReadLoop: %v", err)
	}

	want := []int{5, 3, 8}
	if len(got) != len(want) {
		t.Fatalf("submitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("submitted %v, want %v", got, want)
		}
	}
	if n := strings.Count(out.String(), "Input error"); n != 2 {
		t.Errorf("expected 2 input errors, got %d:\n%s", n, out.String())
	}
	if !strings.Contains(out.String(), console.PromptText) {
		t.Error("prompt not written")
	}
}

func TestReadLoop_ReportsSubmitErrors(t *testing.T) {
	var out syncBuffer
	p := console.NewPrinter(&out, console.WithPlain())

	submit := func(_ int) error { return simulation.ErrRateLimited }
	if err := console.ReadLoop(context.Background(), strings.NewReader("4\n"), submit, p); err != nil {
		t.Fatalf("ReadLoop: %v", err)
	}
	if !strings.Contains(out.String(), "Too many submissions") {
		t.Errorf("rate limit not reported:\n%s", out.String())
	}
}

// blockingReader never returns.
type blockingReader struct{ ch chan struct{} }

func (b blockingReader) Read(_ []byte) (int, error) {
	<-b.ch
	return 0, nil
}

func TestReadLoop_StopsOnCancel(t *testing.T) {
	p := console.NewPrinter(&syncBuffer{}, console.WithPlain())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- console.ReadLoop(ctx, blockingReader{make(chan struct{})}, func(int) error { return nil }, p)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ReadLoop() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadLoop did not stop on cancel")
	}
}
