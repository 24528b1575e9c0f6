// Package workflow orchestrates the classification pipeline: it drives
// each session through the Exclusion, Whitelist, Rules, and ML stages,
// isolates stage failures as session warnings, and supports selective
// reprocessing of individual stages.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/egresswatch/egresswatch/internal/records"
	"github.com/egresswatch/egresswatch/internal/sessions"
)

// anomalyFlagThreshold marks a record as anomalous for session stats.
const anomalyFlagThreshold = 0.5

// Orchestrator runs the classification workflow. A per-session in-flight
// guard rejects overlapping runs of the same session.
type Orchestrator struct {
	rt     *Runtime
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]bool
}

// NewOrchestrator creates a workflow orchestrator.
func NewOrchestrator(rt *Runtime) *Orchestrator {
	return &Orchestrator{
		rt:       rt,
		logger:   rt.Logger.With("system", "workflow"),
		inflight: make(map[uuid.UUID]bool),
	}
}

// Ingest registers a batch of records as a new session in uploaded state.
// The session moves to error only when the batch itself cannot be stored.
func (o *Orchestrator) Ingest(ctx context.Context, source string, recs []*records.Record) (*sessions.Session, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyBatch
	}

	sess, err := o.rt.Sessions.Create(ctx, sessions.CreateCommand{
		Source:       source,
		TotalRecords: len(recs),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	for _, rec := range recs {
		rec.SessionID = sess.ID
		rec.CaseStatus = records.CaseActive
	}

	if err := o.rt.Records.InsertBatch(ctx, recs); err != nil {
		msg := fmt.Sprintf("store batch: %v", err)
		if serr := o.rt.Sessions.SetStatus(ctx, sess.ID, sessions.StatusError, msg); serr != nil {
			o.logger.Error("mark session failed", "session", sess.ID, "error", serr)
		}
		return nil, fmt.Errorf("store batch for session %s: %w", sess.ID, err)
	}

	o.rt.Metrics.RecordsIngested.Add(float64(len(recs)))
	o.logger.Info("session ingested", "session", sess.ID, "source", source, "records", len(recs))
	return sess, nil
}

// Process runs all four stages over the session's records.
func (o *Orchestrator) Process(ctx context.Context, id uuid.UUID) error {
	if !o.acquire(id) {
		return ErrSessionBusy
	}
	defer o.release(id)

	sess, err := o.rt.Sessions.Find(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status == sessions.StatusProcessing {
		return ErrSessionBusy
	}

	return o.run(ctx, sess, sessions.Stages)
}

// Reprocess clears and reruns the stages not named in skip. Skipped
// stages keep their previous outputs and completion flags. The session
// must not be mid-flight.
func (o *Orchestrator) Reprocess(ctx context.Context, id uuid.UUID, skip []sessions.Stage) error {
	if !o.acquire(id) {
		return ErrSessionBusy
	}
	defer o.release(id)

	sess, err := o.rt.Sessions.Find(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status == sessions.StatusProcessing {
		return ErrSessionBusy
	}

	skipped := make(map[sessions.Stage]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	var stages []sessions.Stage
	for _, stage := range sessions.Stages {
		if !skipped[stage] {
			stages = append(stages, stage)
		}
	}
	if len(stages) == 0 {
		return fmt.Errorf("reprocess session %s: every stage skipped", id)
	}

	for _, stage := range stages {
		if err := o.clearStage(ctx, id, stage); err != nil {
			return fmt.Errorf("clear stage %s: %w", stage, err)
		}
	}

	o.logger.Info("session reprocessing", "session", id, "stages", stages)
	return o.run(ctx, sess, stages)
}

func (o *Orchestrator) run(ctx context.Context, sess *sessions.Session, stages []sessions.Stage) error {
	id := sess.ID
	start := time.Now()

	if err := o.rt.Sessions.SetStatus(ctx, id, sessions.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark session processing: %w", err)
	}

	recs, err := o.rt.Records.BySession(ctx, id)
	if err != nil {
		// Failing to load the batch is an ingestion-level fault; stage
		// isolation does not apply.
		msg := fmt.Sprintf("load records: %v", err)
		if serr := o.rt.Sessions.SetStatus(ctx, id, sessions.StatusError, msg); serr != nil {
			o.logger.Error("mark session failed", "session", id, "error", serr)
		}
		o.rt.Metrics.SessionsProcessed.WithLabelValues(string(sessions.StatusError)).Inc()
		return fmt.Errorf("load records for session %s: %w", id, err)
	}

	for _, stage := range stages {
		if err := o.runStage(ctx, id, stage, recs); err != nil {
			o.logger.Error("stage failed", "session", id, "stage", stage, "error", err)
			o.rt.Metrics.StageFailures.WithLabelValues(string(stage)).Inc()
			if werr := o.rt.Sessions.AddWarning(ctx, id, err.Error()); werr != nil {
				o.logger.Error("record session warning", "session", id, "error", werr)
			}
			continue
		}
		if err := o.rt.Sessions.MarkStage(ctx, id, stage, true); err != nil {
			o.logger.Error("mark stage applied", "session", id, "stage", stage, "error", err)
		}
	}

	o.publishStats(ctx, id, recs)

	if err := o.rt.Sessions.SetProgress(ctx, id, len(recs)); err != nil {
		o.logger.Error("update session progress", "session", id, "error", err)
	}
	if err := o.rt.Sessions.SetStatus(ctx, id, sessions.StatusCompleted, ""); err != nil {
		return fmt.Errorf("mark session completed: %w", err)
	}

	elapsed := time.Since(start)
	o.rt.Metrics.SessionsProcessed.WithLabelValues(string(sessions.StatusCompleted)).Inc()
	o.rt.Metrics.ProcessingSeconds.Observe(elapsed.Seconds())

	o.logger.Info("session completed",
		"session", id, "records", len(recs), "elapsed", elapsed)
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, id uuid.UUID, stage sessions.Stage, recs []*records.Record) error {
	switch stage {
	case sessions.StageExclusion:
		return o.applyExclusion(ctx, recs)
	case sessions.StageWhitelist:
		return o.applyWhitelist(ctx, recs)
	case sessions.StageRules:
		return o.applySecurity(ctx, recs)
	case sessions.StageML:
		return o.applyScoring(ctx, id, recs)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func (o *Orchestrator) clearStage(ctx context.Context, id uuid.UUID, stage sessions.Stage) error {
	var err error
	switch stage {
	case sessions.StageExclusion:
		err = o.rt.Records.ClearExclusions(ctx, id)
	case sessions.StageWhitelist:
		err = o.rt.Records.ClearWhitelisted(ctx, id)
	case sessions.StageRules:
		err = o.rt.Records.ClearRuleResults(ctx, id)
	case sessions.StageML:
		err = o.rt.Records.ClearScores(ctx, id)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	if err != nil {
		return err
	}
	return o.rt.Sessions.MarkStage(ctx, id, stage, false)
}

func (o *Orchestrator) acquire(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[id] {
		return false
	}
	o.inflight[id] = true
	return true
}

func (o *Orchestrator) release(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, id)
}

func (o *Orchestrator) publishStats(ctx context.Context, id uuid.UUID, recs []*records.Record) {
	counters, err := o.rt.Records.Counters(ctx, id)
	if err != nil {
		o.logger.Error("aggregate session counters", "session", id, "error", err)
		return
	}

	stats := sessions.Stats{
		Counters:         counters,
		RiskDistribution: make(map[string]int),
	}

	anomalous := 0
	riskTotal := 0.0
	for _, rec := range recs {
		if !rec.Analyzable() {
			continue
		}
		stats.AnalyzedRecords++
		riskTotal += rec.RiskScore
		if rec.AnomalyScore > anomalyFlagThreshold {
			anomalous++
		}
		if rec.RiskLevel != "" {
			stats.RiskDistribution[string(rec.RiskLevel)]++
		}
	}
	if stats.AnalyzedRecords > 0 {
		stats.AnomalyRate = float64(anomalous) / float64(stats.AnalyzedRecords)
		stats.AverageRiskScore = riskTotal / float64(stats.AnalyzedRecords)
	}

	if err := o.rt.Sessions.SetStats(ctx, id, stats); err != nil {
		o.logger.Error("publish session stats", "session", id, "error", err)
	}
}
