package cmd

import (
	"context"
	"os"
	"time"

	"go.ntppool.org/common/config/depenv"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
)

// initTracing starts the trace exporter when an OTLP endpoint is
// configured. The returned function is never nil.
func initTracing(ctx context.Context, depEnv depenv.DeploymentEnvironment) (func(context.Context) error, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func(context.Context) error { return nil }, nil
	}

	tpShutdownFn, err := tracing.InitTracer(ctx,
		&tracing.TracerConfig{
			ServiceName: "diamondd",
			Environment: depEnv.String(),
		},
	)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		logger.FromContext(ctx).Debug("shutting down trace provider")
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tpShutdownFn(shutdownCtx)
	}, nil
}
