package workflow_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/egresswatch/egresswatch/internal/sessions"
	"github.com/egresswatch/egresswatch/internal/workflow"
	"github.com/egresswatch/egresswatch/pkg/lifecycle"
)

func TestWorkerProcessesPendingSessions(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	sess := f.ingest(t, sampleBatch(12))

	worker := workflow.NewWorker(f.orch, f.sessions, 10*time.Millisecond, 2, slog.New(slog.DiscardHandler))
	lc := lifecycle.New()
	worker.Start(lc)
	lc.WaitForStartup()

	deadline := time.After(5 * time.Second)
	for {
		got, err := f.sessions.Find(context.Background(), sess.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Status == sessions.StatusCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("session never completed, status = %q", got.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestWorkerStopsOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	worker := workflow.NewWorker(f.orch, f.sessions, time.Hour, 1, slog.New(slog.DiscardHandler))

	lc := lifecycle.New()
	worker.Start(lc)
	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
