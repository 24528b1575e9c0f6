package keywords

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML shape of a keyword seed document.
type seedFile struct {
	Keywords []Keyword `yaml:"keywords"`
}

// Seed loads a YAML keyword file and upserts its entries. Used at startup
// to install or refresh the curated keyword list.
func Seed(ctx context.Context, store Store, path string, logger *slog.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read keyword file: %w", err)
	}

	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parse keyword file %s: %w", path, err)
	}

	seeded := 0
	for _, k := range doc.Keywords {
		if k.Keyword == "" || k.Category == "" {
			continue
		}
		if k.Weight < 1 {
			k.Weight = 1
		}
		if k.Weight > 10 {
			k.Weight = 10
		}
		if _, err := store.Upsert(ctx, &k); err != nil {
			return seeded, err
		}
		seeded++
	}

	logger.Info("keywords seeded", "path", path, "count", seeded)
	return seeded, nil
}
