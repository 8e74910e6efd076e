package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	simulation "github.com/Timo4ey/distributed-system-simulation"
)

// PromptText is shown before every submission.
const PromptText = "Command: add "

// ParseDuration reads one job duration from an operator line. Blank lines
// yield ErrEmptyInput; anything but a non-negative integer yields
// ErrInvalidInput.
func ParseDuration(line string) (int, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return 0, simulation.ErrEmptyInput
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", simulation.ErrInvalidInput, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: duration must not be negative, got %d", simulation.ErrInvalidInput, n)
	}
	return n, nil
}

// ReadLoop prompts, reads durations from r and hands each to submit until
// r is exhausted or ctx is done. Input and submission errors are reported
// on p and never end the loop.
func ReadLoop(ctx context.Context, r io.Reader, submit func(int) error, p *Printer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		p.Prompt(PromptText)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		d, err := ParseDuration(line)
		if errors.Is(err, simulation.ErrEmptyInput) {
			continue
		}
		if err != nil {
			p.Printf(Error, "Input error: %v", err)
			continue
		}

		if err := submit(d); err != nil {
			switch {
			case errors.Is(err, simulation.ErrRateLimited):
				p.Printf(Warn, "Too many submissions, job with %d units not accepted. Try again shortly.", d)
			case errors.Is(err, simulation.ErrShutdown):
				return nil
			default:
				p.Printf(Error, "Submission failed: %v", err)
			}
		}
	}
}
