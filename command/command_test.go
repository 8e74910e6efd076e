package command

import (
	"errors"
	"strings"
	"testing"
)

func TestNewRun(t *testing.T) {
	t.Parallel()

	cmd := NewRun("job_1", 5)
	if cmd.Kind != KindRun {
		t.Errorf("Kind = %q, want %q", cmd.Kind, KindRun)
	}
	if cmd.Run == nil || cmd.Run.Duration != 5 {
		t.Fatalf("Run payload = %+v, want duration 5", cmd.Run)
	}
	if !strings.HasPrefix(cmd.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", cmd.ID)
	}
	if cmd.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestNewStatusReply_Correlates(t *testing.T) {
	t.Parallel()

	req := NewStatusRequest()
	reply := NewStatusReply(req.ID, "Worker 1", 3)

	if reply.CorrelID != req.ID {
		t.Errorf("CorrelID = %q, want %q", reply.CorrelID, req.ID)
	}
	if reply.Status.Name != "Worker 1" || reply.Status.Remaining != 3 {
		t.Errorf("Status = %+v", reply.Status)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmd     *Command
		wantErr bool
	}{
		{"run", NewRun("job_1", 3), false},
		{"zero run", NewRun("job_1", 0), false},
		{"status request", NewStatusRequest(), false},
		{"status reply", NewStatusReply("msg_1", "Worker 1", 0), false},
		{"done", NewDone("job_1"), false},
		{"reject", NewReject("job_1", 4), false},
		{"nil", nil, true},
		{"unknown kind", &Command{Kind: "PING"}, true},
		{"run without payload", &Command{Kind: KindRun}, true},
		{"negative run", &Command{Kind: KindRun, Run: &RunPayload{Duration: -1}}, true},
		{"reply without payload", &Command{Kind: KindStatusReply}, true},
		{"negative remaining", &Command{Kind: KindStatusReply, Status: &StatusPayload{Remaining: -2}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("expected ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	if got := NewRun("job_1", 7).String(); got != "RUN(7)" {
		t.Errorf("String() = %q", got)
	}
	if got := NewStatusReply("x", "Worker 2", 1).String(); got != "STATUS_REPLY(Worker 2, 1)" {
		t.Errorf("String() = %q", got)
	}
	if got := NewDone("job_1").String(); got != "DONE" {
		t.Errorf("String() = %q", got)
	}
}
