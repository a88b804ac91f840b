package worker

import (
	"context"
	"errors"
	"time"

	"finboard/internal/api"
	"finboard/internal/dashboard"
	applog "finboard/internal/log"
	"finboard/internal/session"
)

// RefreshWorker polls the remote on an interval: roster first, then all
// aggregation views. All data is pull based, so this is the only way state
// converges while the process is idle.
type RefreshWorker struct {
	session   *session.Manager
	dashboard *dashboard.Dashboard
	interval  time.Duration
	log       *applog.Logger
}

func NewRefreshWorker(sess *session.Manager, dash *dashboard.Dashboard, interval time.Duration, logger *applog.Logger) *RefreshWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	}
	return &RefreshWorker{
		session:   sess,
		dashboard: dash,
		interval:  interval,
		log:       logger,
	}
}

// Run polls until the context is cancelled. A refresh cycle that fails is
// logged and retried on the next tick; an in-flight session operation simply
// skips the tick.
func (w *RefreshWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.InfoContext(ctx, "refresh worker started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.log.InfoContext(ctx, "refresh worker stopping",
				applog.FieldOperation, applog.OpShutdown, "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

func (w *RefreshWorker) cycle(ctx context.Context) {
	if err := w.session.RefreshRoster(ctx); err != nil {
		if errors.Is(err, api.ErrBusy) {
			w.log.DebugContext(ctx, "skipping tick, session busy")
			return
		}
		w.log.WarnContext(ctx, "roster refresh failed",
			applog.FieldOperation, applog.OpRefreshRoster, applog.FieldError, err)
		// Views still refresh: each one degrades independently.
	}
	if err := w.dashboard.RefreshAll(ctx); err != nil {
		w.log.WarnContext(ctx, "view refresh failed",
			applog.FieldOperation, applog.OpFetch, applog.FieldError, err)
	}
}
