package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Timo4ey/distributed-system-simulation/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"JobID", id.NewJobID, "job_"},
		{"MessageID", id.NewMessageID, "msg_"},
		{"WorkerID", id.NewWorkerID, "wkr_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	jobID := id.NewJobID()

	parsed, err := id.ParseJobID(jobID.String())
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if parsed.String() != jobID.String() {
		t.Errorf("round trip mismatch: %q != %q", parsed.String(), jobID.String())
	}

	if _, err := id.ParseMessageID(jobID.String()); err == nil {
		t.Error("expected prefix mismatch error")
	}
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("expected Nil to be nil")
	}
	if id.Nil.String() != "" {
		t.Errorf("expected empty string, got %q", id.Nil.String())
	}
}

func TestTextMarshaling(t *testing.T) {
	type wrapper struct {
		Job id.JobID `json:"job"`
	}
	in := wrapper{Job: id.NewJobID()}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Job.String() != in.Job.String() {
		t.Errorf("got %q, want %q", out.Job.String(), in.Job.String())
	}
}
