package anomaly_test

import (
	"log/slog"
	"testing"

	"github.com/egresswatch/egresswatch/internal/anomaly"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// clusteredBatch builds a tight cluster with one far outlier at the end.
func clusteredBatch(n int) [][]float64 {
	vectors := make([][]float64, 0, n)
	for i := range n - 1 {
		vectors = append(vectors, []float64{
			10 + float64(i%3), 1, 0, float64(i % 2),
		})
	}
	vectors = append(vectors, []float64{500, 0, 1, 9})
	return vectors
}

func TestScoreSmallBatchIsZero(t *testing.T) {
	scorer := anomaly.NewScorer(anomaly.Config{Seed: 42}, discard())

	vectors := clusteredBatch(9)
	scores := scorer.Score(vectors)

	if len(scores) != len(vectors) {
		t.Fatalf("scores = %d, want %d", len(scores), len(vectors))
	}
	for i, s := range scores {
		if s != 0 {
			t.Errorf("scores[%d] = %v, want 0 below minimum batch size", i, s)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	scorer := anomaly.NewScorer(anomaly.Config{Estimators: 50, SampleSize: 64, Seed: 42}, discard())

	scores := scorer.Score(clusteredBatch(40))
	for i, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("scores[%d] = %v, out of [0, 1]", i, s)
		}
	}
}

func TestScoreOutlierRanksHighest(t *testing.T) {
	scorer := anomaly.NewScorer(anomaly.Config{Estimators: 100, SampleSize: 64, Seed: 42}, discard())

	vectors := clusteredBatch(40)
	scores := scorer.Score(vectors)

	outlier := len(vectors) - 1
	for i, s := range scores {
		if i != outlier && s >= scores[outlier] {
			t.Fatalf("scores[%d] = %v >= outlier score %v", i, s, scores[outlier])
		}
	}
	if scores[outlier] != 1 {
		t.Errorf("outlier score = %v, want 1 after min-max normalization", scores[outlier])
	}
}

func TestScoreDeterministicForSeed(t *testing.T) {
	cfg := anomaly.Config{Estimators: 50, SampleSize: 64, Seed: 7}
	vectors := clusteredBatch(30)

	a := anomaly.NewScorer(cfg, discard()).Score(vectors)
	b := anomaly.NewScorer(cfg, discard()).Score(vectors)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("scores diverge at %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestScoreIdenticalVectorsAllZero(t *testing.T) {
	scorer := anomaly.NewScorer(anomaly.Config{Estimators: 20, Seed: 1}, discard())

	vectors := make([][]float64, 15)
	for i := range vectors {
		vectors[i] = []float64{1, 2, 3}
	}

	for i, s := range scorer.Score(vectors) {
		if s != 0 {
			t.Errorf("scores[%d] = %v, want 0 for identical batch", i, s)
		}
	}
}
