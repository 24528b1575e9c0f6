// Package anomaly scores feature vectors for outlierness with an
// isolation-forest ensemble. Scoring is session-local: the forest is fit
// on each batch and discarded, so no state leaks between sessions, and the
// seeded randomness makes a rerun over the same batch reproducible.
package anomaly

import (
	"log/slog"
	"math"
)

// minSamples is the smallest batch worth scoring. Below it the isolation
// statistics are noise, so every record scores zero.
const minSamples = 10

// Config holds the ensemble tunables.
type Config struct {
	// Estimators is the number of trees in the forest.
	Estimators int
	// SampleSize caps the per-tree subsample.
	SampleSize int
	// Seed fixes the randomness so identical batches score identically.
	Seed uint64
	// Contamination is the expected anomaly share, kept for operator
	// context; scores are min-max normalized so it does not shift them.
	Contamination float64
}

// Scorer fits and scores per batch.
type Scorer struct {
	cfg    Config
	logger *slog.Logger
}

// NewScorer creates an anomaly scorer.
func NewScorer(cfg Config, logger *slog.Logger) *Scorer {
	if cfg.Estimators <= 0 {
		cfg.Estimators = 100
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 256
	}
	return &Scorer{
		cfg:    cfg,
		logger: logger.With("system", "anomaly"),
	}
}

// Score returns one score in [0, 1] per vector, 1 being most anomalous
// within the batch. Batches below the minimum sample count score all
// zeros.
func (s *Scorer) Score(vectors [][]float64) []float64 {
	scores := make([]float64, len(vectors))
	if len(vectors) < minSamples {
		s.logger.Warn("batch too small for anomaly detection", "records", len(vectors))
		return scores
	}

	standardized := standardize(vectors)
	forest := newForest(standardized, s.cfg)

	for i, v := range standardized {
		scores[i] = forest.score(v)
	}

	normalizeInPlace(scores)

	s.logger.Info("anomaly scores computed",
		"records", len(vectors), "estimators", s.cfg.Estimators)
	return scores
}

// standardize centers and scales each column to zero mean and unit
// variance. Constant columns pass through unscaled.
func standardize(vectors [][]float64) [][]float64 {
	n := len(vectors)
	dim := len(vectors[0])

	mean := make([]float64, dim)
	for _, v := range vectors {
		for j, x := range v {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	std := make([]float64, dim)
	for _, v := range vectors {
		for j, x := range v {
			d := x - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(n))
		if std[j] == 0 {
			std[j] = 1
		}
	}

	out := make([][]float64, n)
	for i, v := range vectors {
		row := make([]float64, dim)
		for j, x := range v {
			row[j] = (x - mean[j]) / std[j]
		}
		out[i] = row
	}
	return out
}

// normalizeInPlace min-max scales scores to [0, 1]. A degenerate batch
// where every score is identical normalizes to all zeros.
func normalizeInPlace(scores []float64) {
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	span := hi - lo
	if span < 1e-12 {
		for i := range scores {
			scores[i] = 0
		}
		return
	}
	for i := range scores {
		scores[i] = (scores[i] - lo) / span
	}
}
