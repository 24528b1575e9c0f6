package rules

import (
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/egresswatch/egresswatch/internal/records"
)

// securityFloor is the minimum risk score and forced level applied when any
// security rule matches a record. An explicit rule hit outranks whatever
// the statistical scorer later computes.
const securityFloor = 0.9

// Engine applies exclusion and security rules to record batches. It mutates
// only the output fields owned by the rules stage.
type Engine struct {
	eval   *Evaluator
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a rule engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		eval:   NewEvaluator(logger),
		logger: logger.With("system", "rules"),
		now:    time.Now,
	}
}

// ApplyExclusion tests each record against enabled exclusion rules in
// descending priority order. The first matching rule excludes the record
// and no further rules are tested against it. Records excluded by a prior
// run are skipped, so repeated application is idempotent. Returns the
// number of records newly excluded.
func (e *Engine) ApplyExclusion(recs []*records.Record, all []*Rule) int {
	active := sortedActive(all, func(r *Rule) bool { return r.Type == TypeExclusion })
	if len(active) == 0 {
		return 0
	}

	excluded := 0
	for _, rec := range recs {
		if rec.Excluded() {
			continue
		}
		for _, rule := range active {
			if e.eval.Evaluate(rec, rule.Conditions) {
				rec.ExcludedByRule = rule.Name
				excluded++
				e.logger.Info("record excluded", "record", rec.RecordID, "rule", rule.Name)
				break
			}
		}
	}

	e.logger.Info("exclusion rules applied", "rules", len(active), "excluded", excluded)
	return excluded
}

// ApplySecurity tests every enabled security rule against every analyzable
// record without short-circuiting, so a record accumulates all of its
// matches. Each match appends a structured entry, applies the rule's
// actions, and any match forces the record to Critical with a risk score of
// at least 0.9. Returns all matches across the batch.
func (e *Engine) ApplySecurity(recs []*records.Record, all []*Rule) []records.RuleMatch {
	active := sortedActive(all, func(r *Rule) bool { return r.Security() })
	if len(active) == 0 {
		return nil
	}

	var matches []records.RuleMatch
	for _, rec := range recs {
		if !rec.Analyzable() {
			continue
		}

		var matched []records.RuleMatch
		for _, rule := range active {
			if !e.eval.Evaluate(rec, rule.Conditions) {
				continue
			}
			e.logger.Info("security rule matched", "record", rec.RecordID, "rule", rule.Name)
			matched = append(matched, newMatch(rule))
			e.applyActions(rec, rule)
		}

		if len(matched) > 0 {
			rec.RuleMatches = matched
			rec.RiskLevel = records.LevelCritical
			rec.RiskScore = max(rec.RiskScore, securityFloor)
			matches = append(matches, matched...)
		}
	}

	e.logger.Info("security rules applied", "rules", len(active), "matches", len(matches))
	return matches
}

func (e *Engine) applyActions(rec *records.Record, rule *Rule) {
	a := rule.Actions

	if a.Escalate {
		rec.CaseStatus = records.CaseEscalated
		t := e.now().UTC()
		rec.EscalatedAt = &t
	}

	if a.Flag {
		msg := a.FlagMessage
		if msg == "" {
			msg = "Flagged by rule: " + rule.Name
		}
		appendNote(rec, msg)
	}

	if a.ScoreModifier != 0 {
		rec.RiskScore = clamp01(rec.RiskScore + a.ScoreModifier)
	}

	if a.Tag != "" {
		appendNote(rec, "Tag: "+a.Tag)
	}

	if a.AssignTo != "" {
		rec.AssignedTo = a.AssignTo
	}
}

// TestMatch summarizes one record hit during a rule dry run.
type TestMatch struct {
	RecordID        string `json:"record_id"`
	Sender          string `json:"sender"`
	Subject         string `json:"subject"`
	RecipientDomain string `json:"recipients_email_domain"`
}

// TestResult reports the outcome of testing a rule against sample records.
type TestResult struct {
	Matches         []TestMatch `json:"matches"`
	MatchCount      int         `json:"match_count"`
	TotalTested     int         `json:"total_tested"`
	MatchPercentage float64     `json:"match_percentage"`
}

// TestRule dry-runs a rule against sample records without mutating them.
func (e *Engine) TestRule(rule *Rule, recs []*records.Record) TestResult {
	result := TestResult{
		Matches:     make([]TestMatch, 0),
		TotalTested: len(recs),
	}

	for _, rec := range recs {
		if !e.eval.Evaluate(rec, rule.Conditions) {
			continue
		}
		subject := rec.Subject
		if len(subject) > 100 {
			subject = subject[:100]
		}
		result.Matches = append(result.Matches, TestMatch{
			RecordID:        rec.RecordID,
			Sender:          rec.Sender,
			Subject:         subject,
			RecipientDomain: rec.RecipientDomain,
		})
	}

	result.MatchCount = len(result.Matches)
	if result.TotalTested > 0 {
		result.MatchPercentage = float64(result.MatchCount) / float64(result.TotalTested) * 100
	}
	return result
}

func newMatch(rule *Rule) records.RuleMatch {
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		actions = nil
	}
	return records.RuleMatch{
		RuleID:   rule.ID,
		Name:     rule.Name,
		Priority: rule.Priority,
		Actions:  actions,
	}
}

func sortedActive(all []*Rule, keep func(*Rule) bool) []*Rule {
	active := make([]*Rule, 0, len(all))
	for _, r := range all {
		if r.Enabled && keep(r) {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})
	return active
}

func appendNote(rec *records.Record, note string) {
	if rec.Notes != "" {
		rec.Notes += "\n" + note
		return
	}
	rec.Notes = note
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
