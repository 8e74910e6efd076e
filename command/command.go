// Package command defines the message protocol spoken between the
// dispatcher and its workers. Every message on a bus is a Command.
package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/id"
)

// ErrMalformed is returned when a message has an unknown kind or is
// missing the payload its kind requires.
var ErrMalformed = errors.New("simulation: malformed command")

// Kind identifies the command category.
type Kind string

const (
	// KindRun asks a worker to execute a job of Run.Duration units.
	KindRun Kind = "RUN"
	// KindStatusRequest asks a worker for its remaining units.
	KindStatusRequest Kind = "STATUS_REQUEST"
	// KindStatusReply answers a status request. CorrelID holds the
	// request's ID.
	KindStatusReply Kind = "STATUS_REPLY"
	// KindDone reports that the worker's job finished.
	KindDone Kind = "DONE"
	// KindReject returns a RUN that arrived while a job was in flight.
	KindReject Kind = "REJECT"
)

// Command is the bus message envelope.
type Command struct {
	ID        string         `json:"id" msgpack:"id"`
	Kind      Kind           `json:"kind" msgpack:"kind"`
	CorrelID  string         `json:"correl_id,omitempty" msgpack:"correl_id,omitempty"`
	JobID     string         `json:"job_id,omitempty" msgpack:"job_id,omitempty"`
	Run       *RunPayload    `json:"run,omitempty" msgpack:"run,omitempty"`
	Status    *StatusPayload `json:"status,omitempty" msgpack:"status,omitempty"`
	Timestamp time.Time      `json:"ts" msgpack:"ts"`
}

// RunPayload carries a job duration in time units.
type RunPayload struct {
	Duration int `json:"duration" msgpack:"duration"`
}

// StatusPayload is a worker's answer to a status request.
type StatusPayload struct {
	Name      string `json:"name" msgpack:"name"`
	Remaining int    `json:"remaining" msgpack:"remaining"`
}

// NewRun creates a RUN command for the given job.
func NewRun(jobID string, duration int) *Command {
	c := newCommand(KindRun)
	c.JobID = jobID
	c.Run = &RunPayload{Duration: duration}
	return c
}

// NewStatusRequest creates a STATUS_REQUEST. Its ID is the correlation
// key the reply will carry.
func NewStatusRequest() *Command {
	return newCommand(KindStatusRequest)
}

// NewStatusReply answers the request identified by correlID.
func NewStatusReply(correlID, name string, remaining int) *Command {
	c := newCommand(KindStatusReply)
	c.CorrelID = correlID
	c.Status = &StatusPayload{Name: name, Remaining: remaining}
	return c
}

// NewDone reports completion of the given job.
func NewDone(jobID string) *Command {
	c := newCommand(KindDone)
	c.JobID = jobID
	return c
}

// NewReject hands a RUN back to the dispatcher unexecuted.
func NewReject(jobID string, duration int) *Command {
	c := newCommand(KindReject)
	c.JobID = jobID
	c.Run = &RunPayload{Duration: duration}
	return c
}

func newCommand(kind Kind) *Command {
	return &Command{
		ID:        id.NewMessageID().String(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks that the command is one of the known kinds and carries
// the payload that kind requires.
func (c *Command) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil command", ErrMalformed)
	}
	switch c.Kind {
	case KindRun, KindReject:
		if c.Run == nil {
			return fmt.Errorf("%w: %s without run payload", ErrMalformed, c.Kind)
		}
		if c.Run.Duration < 0 {
			return fmt.Errorf("%w: negative duration %d", ErrMalformed, c.Run.Duration)
		}
	case KindStatusReply:
		if c.Status == nil {
			return fmt.Errorf("%w: %s without status payload", ErrMalformed, c.Kind)
		}
		if c.Status.Remaining < 0 {
			return fmt.Errorf("%w: negative remaining %d", ErrMalformed, c.Status.Remaining)
		}
	case KindStatusRequest, KindDone:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformed, c.Kind)
	}
	return nil
}

// String renders a short description for log lines.
func (c *Command) String() string {
	switch {
	case c.Run != nil:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Run.Duration)
	case c.Status != nil:
		return fmt.Sprintf("%s(%s, %d)", c.Kind, c.Status.Name, c.Status.Remaining)
	default:
		return string(c.Kind)
	}
}
