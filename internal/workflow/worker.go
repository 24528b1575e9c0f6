package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/egresswatch/egresswatch/internal/sessions"
	"github.com/egresswatch/egresswatch/pkg/lifecycle"
)

// Worker polls for uploaded sessions and processes them with bounded
// concurrency.
type Worker struct {
	orch     *Orchestrator
	store    sessions.Store
	interval time.Duration
	limit    int
	logger   *slog.Logger
}

// NewWorker creates a session worker. limit bounds both the poll batch
// and the concurrent sessions in flight.
func NewWorker(orch *Orchestrator, store sessions.Store, interval time.Duration, limit int, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if limit <= 0 {
		limit = 1
	}
	return &Worker{
		orch:     orch,
		store:    store,
		interval: interval,
		limit:    limit,
		logger:   logger.With("system", "worker"),
	}
}

// Start launches the poll loop tied to the coordinator's context and
// registers a shutdown hook that waits for it to drain.
func (w *Worker) Start(lc *lifecycle.Coordinator) {
	ctx := lc.Context()
	done := make(chan struct{})

	go func() {
		defer close(done)
		w.run(ctx)
	}()

	lc.OnShutdown(func() {
		<-done
		w.logger.Info("worker stopped")
	})

	w.logger.Info("worker started", "interval", w.interval, "limit", w.limit)
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.dispatch(ctx)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context) {
	ids, err := w.store.Pending(ctx, w.limit)
	if err != nil {
		w.logger.Error("poll pending sessions", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.limit)

	for _, id := range ids {
		g.Go(func() error {
			err := w.orch.Process(gctx, id)
			if err != nil && !errors.Is(err, ErrSessionBusy) {
				w.logger.Error("process session", "session", id, "error", err)
			}
			return nil
		})
	}

	// Errors are logged per session; the group never fails.
	_ = g.Wait()
}
