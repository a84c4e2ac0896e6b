package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type traceIDKey struct{}

const (
	// TraceIDHeader echoes the request's trace ID to the client so error
	// reports can be matched to server logs.
	TraceIDHeader = "X-Trace-Id"

	// TraceIDLength is the number of random bytes behind a trace ID.
	TraceIDLength = 16
)

// NewTraceID returns 32 lowercase hex characters.
func NewTraceID() string {
	return generateTraceID(rand.Reader)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// GetTraceID returns "" when ctx carries no trace ID.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// generateTraceID falls back to a dashless UUID, also 32 hex characters,
// when src cannot supply enough bytes.
func generateTraceID(src io.Reader) string {
	b := make([]byte, TraceIDLength)
	if n, err := io.ReadFull(src, b); err != nil {
		slog.Error("trace ID entropy read failed, using uuid",
			"error", err,
			"bytes_read", n)
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b)
}
