package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"

	"rfdetr-toolkit/internal/core/domain"
	output "rfdetr-toolkit/internal/core/ports/output"
)

// PollConfig bounds every wait on asynchronous platform work.
type PollConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
	return c
}

// poll calls check until it reports done, starting immediately. A deadline
// hit inside poll returns timeoutErr; cancellation of the parent context
// returns the context error.
func poll[T any](ctx context.Context, cfg PollConfig, timeoutErr error, check func(context.Context) (T, bool, error)) (T, error) {
	cfg = cfg.withDefaults()

	var result T
	err := wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true, func(ctx context.Context) (bool, error) {
		v, done, err := check(ctx)
		if err != nil {
			return false, err
		}
		result = v
		return done, nil
	})
	if err != nil {
		var zero T
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if wait.Interrupted(err) {
			return zero, fmt.Errorf("%w after %s", timeoutErr, cfg.Timeout)
		}
		return zero, err
	}
	return result, nil
}

// WaitForVersion blocks until the platform reports that ref finished
// generating.
func WaitForVersion(ctx context.Context, platform output.PlatformClient, ref domain.VersionRef, cfg PollConfig) (*domain.VersionStatus, error) {
	return poll(ctx, cfg, domain.ErrVersionNotReady, func(ctx context.Context) (*domain.VersionStatus, bool, error) {
		status, err := platform.GetVersion(ctx, ref)
		if err != nil {
			return nil, false, fmt.Errorf("get version: %w", err)
		}
		log.WithFields(log.Fields{
			"version":    ref.String(),
			"generating": status.Generating,
			"progress":   status.Progress,
		}).Debug("version status")
		return status, status.Ready(), nil
	})
}

func waitForExport(ctx context.Context, platform output.PlatformClient, ref domain.VersionRef, format string, cfg PollConfig) (*output.ExportStatus, error) {
	return poll(ctx, cfg, domain.ErrExportNotReady, func(ctx context.Context) (*output.ExportStatus, bool, error) {
		export, err := platform.ExportVersion(ctx, ref, format)
		if err != nil {
			return nil, false, fmt.Errorf("export version: %w", err)
		}
		if !export.Ready() {
			log.WithFields(log.Fields{
				"version":  ref.String(),
				"format":   format,
				"progress": export.Progress,
			}).Info("waiting for export")
		}
		return export, export.Ready(), nil
	})
}
