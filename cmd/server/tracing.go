package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/degreeplan-api/internal/config"
	"github.com/phrazzld/degreeplan-api/internal/platform/telemetry"
)

// tracingShutdownTimeout bounds the final span flush on exit.
const tracingShutdownTimeout = 5 * time.Second

// setupTracing installs the global tracer provider. The returned func
// flushes buffered spans and logs, rather than returns, a flush failure.
func setupTracing(ctx context.Context, cfg config.TracingConfig, log *slog.Logger) (func(), error) {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Exporter:     cfg.Exporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		SampleRatio:  cfg.SampleRatio,
		ServiceName:  cfg.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	log.Info("Tracing configured",
		"exporter", cfg.Exporter,
		"sample_ratio", cfg.SampleRatio)

	return func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tracingShutdownTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Error("Error flushing trace spans", "error", err)
		}
	}, nil
}
