package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/degreeplan-api/internal/api/shared"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans started by this package.
const tracerName = "github.com/phrazzld/degreeplan-api/internal/api/middleware"

// Trace adds a trace ID to the request context and echoes it in the
// X-Trace-Id response header. A logger carrying the trace ID is stored in
// the context for handlers to pick up with logger.FromContext.
//
// Each request runs under a server span from the global tracer provider.
// When that span is sampled, its trace ID is the one logged and echoed.
func Trace(base *slog.Logger) func(http.Handler) http.Handler {
	return TraceWithProvider(base, otel.GetTracerProvider())
}

// TraceWithProvider is Trace with an explicit tracer provider.
func TraceWithProvider(base *slog.Logger, tp trace.TracerProvider) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	tracer := tp.Tracer(tracerName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				))
			defer span.End()

			traceID := shared.NewTraceID()
			if sc := span.SpanContext(); sc.IsValid() {
				traceID = sc.TraceID().String()
			}
			ctx = shared.WithTraceID(ctx, traceID)

			log := base.With(slog.String("trace_id", traceID))
			if reqID := chimw.GetReqID(ctx); reqID != "" {
				log = log.With(slog.String("request_id", reqID))
			}
			ctx = logger.WithLogger(ctx, log)

			w.Header().Set(shared.TraceIDHeader, traceID)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if rctx := chi.RouteContext(ctx); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					span.SetName(r.Method + " " + pattern)
					span.SetAttributes(attribute.String("http.route", pattern))
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}

// RequestLog logs one line per request with its status and duration.
// It must run after Trace so the line carries the trace ID.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.FromContext(r.Context()).Debug("request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)))
	})
}
