package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Printer serializes console output so lines from concurrent tasks never
// interleave. Each call writes whole lines under one lock.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	plain bool
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithPlain disables styling. Used for non-terminal output and tests.
func WithPlain() PrinterOption {
	return func(p *Printer) { p.plain = true }
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{w: w}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sprint renders text in style s, honouring WithPlain.
func (p *Printer) Sprint(s Style, text string) string {
	if p.plain {
		return text
	}
	return Render(s, text)
}

// Printf writes one formatted line in style s.
func (p *Printer) Printf(s Style, format string, args ...any) {
	line := p.Sprint(s, fmt.Sprintf(format, args...))

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, line)
}

// Lines writes a block atomically. Lines are written as given; style them
// with Sprint first.
func (p *Printer) Lines(lines ...string) {
	if len(lines) == 0 {
		return
	}
	block := strings.Join(lines, "\n") + "\n"

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, block)
}

// Prompt writes text without a trailing newline.
func (p *Printer) Prompt(text string) {
	text = p.Sprint(Muted, text)

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, text)
}
