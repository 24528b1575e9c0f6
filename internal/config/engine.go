package config

import (
	"fmt"

	"github.com/egresswatch/egresswatch/internal/risk"
)

// EngineConfig holds the classification pipeline tunables.
type EngineConfig struct {
	// ChunkSize bounds per-transaction record writes.
	ChunkSize int `toml:"chunk_size"`
	// MaxMLRecords caps how many records one scoring pass analyzes.
	MaxMLRecords int `toml:"max_records_per_ml_pass"`
	// Estimators is the anomaly detector ensemble size.
	Estimators int `toml:"detector_ensemble_size"`
	// SampleSize caps the per-tree subsample.
	SampleSize int `toml:"detector_sample_size"`
	// Seed fixes the detector randomness for reproducible reruns.
	Seed int64 `toml:"random_seed"`
	// Contamination is the expected anomaly share.
	Contamination float64 `toml:"contamination_rate"`

	Thresholds risk.Thresholds `toml:"thresholds"`
	Weights    risk.Weights    `toml:"weights"`
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.ChunkSize != 0 {
		c.ChunkSize = overlay.ChunkSize
	}
	if overlay.MaxMLRecords != 0 {
		c.MaxMLRecords = overlay.MaxMLRecords
	}
	if overlay.Estimators != 0 {
		c.Estimators = overlay.Estimators
	}
	if overlay.SampleSize != 0 {
		c.SampleSize = overlay.SampleSize
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.Contamination != 0 {
		c.Contamination = overlay.Contamination
	}
	overlayFloats(thresholdFields(&c.Thresholds), thresholdFields(&overlay.Thresholds))
	overlayFloats(weightFields(&c.Weights), weightFields(&overlay.Weights))
}

// Finalize applies defaults and validation. Zero weight and threshold
// fields take the calibrated defaults; an explicit zero is not
// representable and requires a source change.
func (c *EngineConfig) Finalize() error {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
	if c.MaxMLRecords == 0 {
		c.MaxMLRecords = 5000
	}
	if c.Estimators == 0 {
		c.Estimators = 100
	}
	if c.SampleSize == 0 {
		c.SampleSize = 256
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Contamination == 0 {
		c.Contamination = 0.10
	}
	defaults := risk.DefaultThresholds()
	fillFloats(thresholdFields(&c.Thresholds), thresholdFields(&defaults))
	weights := risk.DefaultWeights()
	fillFloats(weightFields(&c.Weights), weightFields(&weights))

	if c.ChunkSize < 0 || c.MaxMLRecords < 0 {
		return fmt.Errorf("chunk_size and max_records_per_ml_pass must be positive")
	}
	if c.Contamination <= 0 || c.Contamination >= 0.5 {
		return fmt.Errorf("contamination_rate must be in (0, 0.5), got %v", c.Contamination)
	}
	if c.Thresholds.Critical < c.Thresholds.High || c.Thresholds.High < c.Thresholds.Medium {
		return fmt.Errorf("risk thresholds must be ordered critical >= high >= medium")
	}
	return nil
}

func thresholdFields(t *risk.Thresholds) []*float64 {
	return []*float64{&t.Critical, &t.High, &t.Medium}
}

func weightFields(w *risk.Weights) []*float64 {
	return []*float64{
		&w.Anomaly, &w.Rule,
		&w.Leaver, &w.PublicDomain, &w.DisposableDomain,
		&w.Attachment, &w.Wordlist, &w.Temporal, &w.Justification,
	}
}

// overlayFloats overwrites dst fields with non-zero overlay fields.
func overlayFloats(dst, overlay []*float64) {
	for i := range dst {
		if *overlay[i] != 0 {
			*dst[i] = *overlay[i]
		}
	}
}

// fillFloats fills zero dst fields from defaults.
func fillFloats(dst, defaults []*float64) {
	for i := range dst {
		if *dst[i] == 0 {
			*dst[i] = *defaults[i]
		}
	}
}
