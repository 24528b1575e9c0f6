package workflow

import (
	"log/slog"

	"github.com/egresswatch/egresswatch/internal/anomaly"
	"github.com/egresswatch/egresswatch/internal/features"
	"github.com/egresswatch/egresswatch/internal/records"
	"github.com/egresswatch/egresswatch/internal/risk"
	"github.com/egresswatch/egresswatch/internal/rules"
	"github.com/egresswatch/egresswatch/internal/sessions"
	"github.com/egresswatch/egresswatch/internal/whitelist"
)

// Runtime bundles the dependencies the workflow stages require. It is
// constructed by higher-level composition code from infrastructure and
// domain systems.
type Runtime struct {
	Sessions  sessions.Store
	Records   records.Store
	Rules     rules.Store
	Whitelist whitelist.Store

	Engine    *rules.Engine
	Extractor *features.Extractor
	Scorer    *anomaly.Scorer
	Risk      *risk.Engine

	Metrics *Metrics
	Logger  *slog.Logger

	// ChunkSize bounds per-transaction writes and progress updates.
	ChunkSize int
	// MaxMLRecords caps how many records one scoring pass analyzes.
	MaxMLRecords int
}
