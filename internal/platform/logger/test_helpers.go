package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

// Recorder captures JSON log records for assertions. Worker goroutines may
// write while a test reads.
type Recorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Records decodes every captured line.
func (r *Recorder) Records() ([]map[string]any, error) {
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader([]byte(r.String())))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		rec := map[string]any{}
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

// HasMessage reports whether any record has msg as its message.
func (r *Recorder) HasMessage(msg string) bool {
	recs, err := r.Records()
	if err != nil {
		return false
	}
	for _, rec := range recs {
		if rec[slog.MessageKey] == msg {
			return true
		}
	}
	return false
}

// NewRecordingLogger returns a debug-level JSON logger and its recorder.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	return slog.New(slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug})), rec
}
