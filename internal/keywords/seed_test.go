package keywords_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/egresswatch/egresswatch/internal/keywords"
)

type fakeStore struct {
	upserted []*keywords.Keyword
}

func (s *fakeStore) Active(ctx context.Context) ([]*keywords.Keyword, error) {
	return s.upserted, nil
}

func (s *fakeStore) Upsert(ctx context.Context, k *keywords.Keyword) (*keywords.Keyword, error) {
	s.upserted = append(s.upserted, k)
	return k, nil
}

func (s *fakeStore) Deactivate(ctx context.Context, keyword string) error {
	return nil
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestSeed(t *testing.T) {
	doc := `
keywords:
  - keyword: salary
    category: Suspicious
    risk_score: 8
  - keyword: photos
    category: Personal
    risk_score: 3
  - keyword: overweighted
    category: Suspicious
    risk_score: 99
  - keyword: unweighted
    category: Business
  - keyword: ""
    category: Suspicious
    risk_score: 5
  - keyword: uncategorized
    risk_score: 5
`
	store := &fakeStore{}
	logger := slog.New(slog.DiscardHandler)

	n, err := keywords.Seed(context.Background(), store, writeSeed(t, doc), logger)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if n != 4 {
		t.Fatalf("seeded = %d, want 4 (blank entries skipped)", n)
	}

	byName := make(map[string]*keywords.Keyword)
	for _, k := range store.upserted {
		byName[k.Keyword] = k
	}

	if k := byName["salary"]; k == nil || k.Weight != 8 || k.Category != keywords.CategorySuspicious {
		t.Errorf("salary = %+v", k)
	}
	if k := byName["overweighted"]; k == nil || k.Weight != 10 {
		t.Errorf("weight not clamped to 10: %+v", k)
	}
	if k := byName["unweighted"]; k == nil || k.Weight != 1 {
		t.Errorf("missing weight not defaulted to 1: %+v", k)
	}
}

func TestSeedMissingFile(t *testing.T) {
	store := &fakeStore{}
	logger := slog.New(slog.DiscardHandler)

	if _, err := keywords.Seed(context.Background(), store, "/nonexistent/keywords.yaml", logger); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSeedMalformedFile(t *testing.T) {
	store := &fakeStore{}
	logger := slog.New(slog.DiscardHandler)

	if _, err := keywords.Seed(context.Background(), store, writeSeed(t, "keywords: {not: a list}"), logger); err == nil {
		t.Error("expected error for malformed document")
	}
}
