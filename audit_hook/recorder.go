package audithook

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// JSONRecorder writes one JSON object per event.
type JSONRecorder struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

var _ Recorder = (*JSONRecorder)(nil)

// NewJSONRecorder returns a Recorder writing JSON lines to w.
func NewJSONRecorder(w io.Writer) *JSONRecorder {
	return &JSONRecorder{enc: json.NewEncoder(w), now: time.Now}
}

type jsonLine struct {
	Time time.Time `json:"time"`
	*AuditEvent
}

// Record implements Recorder.
func (r *JSONRecorder) Record(_ context.Context, event *AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(jsonLine{Time: r.now().UTC(), AuditEvent: event})
}
