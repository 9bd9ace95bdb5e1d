package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/algoviz/internal/logging"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/ports"
)

// TraceHooks returns lifecycle hooks that export every checkpoint to sink,
// and the error sentinel of failed runs. Sink failures are logged, never returned to the store.
func TraceHooks(sink ports.TraceSink, logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		logger = logging.NewNop()
	}

	appendEntry := func(ctx context.Context, entry domain.TraceEntry) {
		if err := sink.Append(ctx, entry); err != nil {
			logger.Warn("failed to export checkpoint", "run_id", entry.RunID, "step", entry.Step, "err", err)
		}
	}

	return domain.LifecycleHooks{
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			appendEntry(context.WithoutCancel(ctx), domain.NewTraceEntry(e.RunID, e.Store, e.Event))
		},
		OnHalt: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err == nil {
				return
			}
			appendEntry(ctx, domain.TraceEntry{
				RunID: e.RunID,
				Store: e.Store,
				Step:  e.Steps,
				Name:  domain.EventError,
				Error: e.Err.Error(),
				At:    time.Now(),
			})
		},
	}
}
