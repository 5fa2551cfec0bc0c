package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// FlushTelemetry runs before process exit: it writes the metrics textfile,
// stops the tracer provider and syncs the logger. All steps run; errors are
// joined.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, metricsPath string, shutdownTracing func(context.Context) error) error {
	var errs []error
	if err := WriteTextfile(metricsPath); err != nil {
		errs = append(errs, err)
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	if logger != nil {
		// Sync on a terminal fails with EINVAL or ENOTTY; nothing was lost.
		if err := logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
			errs = append(errs, fmt.Errorf("flush logs: %w", err))
		}
	}
	return errors.Join(errs...)
}
