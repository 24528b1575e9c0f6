package rules_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/egresswatch/egresswatch/internal/rules"
)

type countingRuleStore struct {
	fakeRuleStore
	mu      sync.Mutex
	upserts int
}

func (s *countingRuleStore) Upsert(ctx context.Context, r *rules.Rule) (*rules.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	return r, nil
}

func (s *countingRuleStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	store := &countingRuleStore{}
	loader := rules.NewLoader(store, discard())
	path := writePack(t, samplePack)

	watcher, err := rules.NewWatcher(loader, path, discard())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher a moment to register before touching the file.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte(samplePack), 0644); err != nil {
		t.Fatalf("rewrite pack: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for store.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("pack not reloaded, upserts = %d", store.count())
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watcher run: %v", err)
	}
}

func TestWatcherRequiresExistingPath(t *testing.T) {
	loader := rules.NewLoader(&fakeRuleStore{}, discard())

	if _, err := rules.NewWatcher(loader, "/nonexistent/rules.yaml", discard()); err == nil {
		t.Error("expected error for missing pack path")
	}
}
