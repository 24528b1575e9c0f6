package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/egresswatch/egresswatch/internal/records"
	"github.com/egresswatch/egresswatch/internal/sessions"
	"github.com/egresswatch/egresswatch/internal/whitelist"
)

func (o *Orchestrator) applyExclusion(ctx context.Context, recs []*records.Record) error {
	active, err := o.rt.Rules.Active(ctx)
	if err != nil {
		return stageErr(sessions.StageExclusion, fmt.Errorf("load rules: %w", err))
	}

	o.rt.Engine.ApplyExclusion(recs, active)

	excluded := filter(recs, func(r *records.Record) bool { return r.Excluded() })
	if len(excluded) > 0 {
		if err := o.rt.Records.SaveExclusions(ctx, excluded); err != nil {
			return stageErr(sessions.StageExclusion, err)
		}
	}

	o.rt.Metrics.RecordsExcluded.Add(float64(len(excluded)))
	return nil
}

func (o *Orchestrator) applyWhitelist(ctx context.Context, recs []*records.Record) error {
	entries, err := o.rt.Whitelist.Active(ctx)
	if err != nil {
		return stageErr(sessions.StageWhitelist, fmt.Errorf("load whitelist: %w", err))
	}

	marked := whitelist.Apply(recs, entries)

	whitelisted := filter(recs, func(r *records.Record) bool { return r.Whitelisted })
	if len(whitelisted) > 0 {
		if err := o.rt.Records.SaveWhitelisted(ctx, whitelisted); err != nil {
			return stageErr(sessions.StageWhitelist, err)
		}
	}

	o.rt.Metrics.RecordsWhitelisted.Add(float64(marked))
	o.logger.Info("whitelist applied", "domains", len(entries), "whitelisted", marked)
	return nil
}

func (o *Orchestrator) applySecurity(ctx context.Context, recs []*records.Record) error {
	active, err := o.rt.Rules.Active(ctx)
	if err != nil {
		return stageErr(sessions.StageRules, fmt.Errorf("load rules: %w", err))
	}

	matches := o.rt.Engine.ApplySecurity(recs, active)

	matched := filter(recs, func(r *records.Record) bool { return len(r.RuleMatches) > 0 })
	if len(matched) > 0 {
		if err := o.rt.Records.SaveRuleResults(ctx, matched); err != nil {
			return stageErr(sessions.StageRules, err)
		}
	}

	o.rt.Metrics.RuleMatches.Add(float64(len(matches)))
	return nil
}

func (o *Orchestrator) applyScoring(ctx context.Context, id uuid.UUID, recs []*records.Record) error {
	analyzable := filter(recs, (*records.Record).Analyzable)
	if len(analyzable) == 0 {
		o.logger.Info("no analyzable records for scoring", "session", id)
		return nil
	}

	if o.rt.MaxMLRecords > 0 && len(analyzable) > o.rt.MaxMLRecords {
		o.logger.Warn("scoring capped",
			"session", id, "analyzable", len(analyzable), "cap", o.rt.MaxMLRecords)
		analyzable = analyzable[:o.rt.MaxMLRecords]
	}

	vectors := o.rt.Extractor.Vectors(ctx, analyzable)
	scores := o.rt.Scorer.Score(vectors)
	o.rt.Risk.Apply(analyzable, vectors, scores)

	// Persist in chunks so progress stays observable on large sessions.
	chunk := o.rt.ChunkSize
	if chunk <= 0 {
		chunk = len(analyzable)
	}
	for offset := 0; offset < len(analyzable); offset += chunk {
		end := min(offset+chunk, len(analyzable))
		if err := o.rt.Records.SaveScores(ctx, analyzable[offset:end]); err != nil {
			return stageErr(sessions.StageML, err)
		}
		if err := o.rt.Sessions.SetProgress(ctx, id, end); err != nil {
			o.logger.Error("update session progress", "session", id, "error", err)
		}
	}

	return nil
}

func filter(recs []*records.Record, keep func(*records.Record) bool) []*records.Record {
	var out []*records.Record
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
