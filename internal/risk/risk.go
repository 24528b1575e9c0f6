// Package risk fuses the statistical anomaly score with deterministic
// rule-derived factors into the final per-record risk score, level, and
// human-readable explanation.
package risk

import (
	"log/slog"
	"strings"

	"github.com/egresswatch/egresswatch/internal/features"
	"github.com/egresswatch/egresswatch/internal/records"
)

// ruleOverrideFloor mirrors the security-rule override: a record with rule
// matches never scores below it and stays Critical regardless of the fused
// score.
const ruleOverrideFloor = 0.9

// suspiciousJustificationTerms flag a justification that reads like an
// excuse rather than a business reason.
var suspiciousJustificationTerms = []string{"urgent", "confidential", "personal", "mistake", "wrong"}

// Weights holds the fusion and factor weights. Factors contribute
// independently and the final score is clamped, so the weights need not
// sum to anything in particular.
type Weights struct {
	Anomaly float64 `toml:"anomaly"`
	Rule    float64 `toml:"rule"`

	Leaver           float64 `toml:"leaver"`
	PublicDomain     float64 `toml:"public_domain"`
	DisposableDomain float64 `toml:"disposable_domain"`
	Attachment       float64 `toml:"attachment"`
	Wordlist         float64 `toml:"wordlist"`
	Temporal         float64 `toml:"temporal"`
	Justification    float64 `toml:"justification"`
}

// DefaultWeights returns the calibrated production weights.
func DefaultWeights() Weights {
	return Weights{
		Anomaly:          0.4,
		Rule:             0.6,
		Leaver:           0.3,
		PublicDomain:     0.2,
		DisposableDomain: 0.4,
		Attachment:       0.3,
		Wordlist:         0.2,
		Temporal:         0.1,
		Justification:    0.1,
	}
}

// Thresholds map a fused score onto a risk level.
type Thresholds struct {
	Critical float64 `toml:"critical"`
	High     float64 `toml:"high"`
	Medium   float64 `toml:"medium"`
}

// DefaultThresholds returns the calibrated level boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 0.8, High: 0.6, Medium: 0.4}
}

// Engine computes fused risk. It owns the anomaly_score, risk_score,
// risk_level, and explanation outputs, except where the rule engine's
// Critical override applies.
type Engine struct {
	weights    Weights
	thresholds Thresholds
	logger     *slog.Logger
}

// NewEngine creates a risk fusion engine.
func NewEngine(w Weights, t Thresholds, logger *slog.Logger) *Engine {
	return &Engine{
		weights:    w,
		thresholds: t,
		logger:     logger.With("system", "risk"),
	}
}

// Apply scores each record from its feature vector and anomaly score.
// The three slices are parallel. Records carrying security-rule matches
// keep their Critical level and at least the override floor.
func (e *Engine) Apply(recs []*records.Record, vectors [][]float64, anomalyScores []float64) {
	for i, rec := range recs {
		v := vectors[i]
		anomaly := anomalyScores[i]
		fused := e.Score(rec, v, anomaly)

		rec.AnomalyScore = anomaly
		rec.Explanation = e.Explain(rec, v, anomaly)

		if len(rec.RuleMatches) > 0 {
			rec.RiskScore = max(fused, ruleOverrideFloor)
			rec.RiskLevel = records.LevelCritical
			continue
		}

		rec.RiskScore = fused
		rec.RiskLevel = records.LevelFor(fused,
			e.thresholds.Critical, e.thresholds.High, e.thresholds.Medium)
	}

	e.logger.Info("risk scores fused", "records", len(recs))
}

// Score fuses the anomaly score with the rule-factor sum and clamps the
// result to [0, 1].
func (e *Engine) Score(rec *records.Record, v []float64, anomaly float64) float64 {
	w := e.weights
	ruleRisk := 0.0

	if v[features.IdxLeaver] > 0 {
		ruleRisk += w.Leaver
	}

	// Domain factors are mutually exclusive; a consumer provider outranks
	// the disposable check when a domain somehow matches both.
	switch {
	case v[features.IdxPublicDomain] > 0:
		ruleRisk += w.PublicDomain
	case v[features.IdxDisposableDomain] > 0:
		ruleRisk += w.DisposableDomain
	}

	ruleRisk += v[features.IdxAttachmentRisk] * w.Attachment

	if v[features.IdxWordlistMatch] > 0 {
		ruleRisk += w.Wordlist
	}
	if v[features.IdxWeekend] > 0 || v[features.IdxAfterHours] > 0 {
		ruleRisk += w.Temporal
	}
	if suspiciousJustification(rec.Justification) {
		ruleRisk += w.Justification
	}

	return clamp01(anomaly*w.Anomaly + ruleRisk*w.Rule)
}

// Explain lists the triggered risk reasons in a fixed order, or reports a
// low-risk communication when nothing triggered.
func (e *Engine) Explain(rec *records.Record, v []float64, anomaly float64) string {
	var reasons []string

	if anomaly > 0.7 {
		reasons = append(reasons, "Unusual communication pattern detected")
	}
	if v[features.IdxLeaver] > 0 {
		reasons = append(reasons, "Sender is a leaver - high risk for data exfiltration")
	}
	switch {
	case v[features.IdxPublicDomain] > 0:
		reasons = append(reasons, "Email sent to high-risk public domain")
	case v[features.IdxDisposableDomain] > 0:
		reasons = append(reasons, "Email sent to suspicious/temporary domain")
	}
	if v[features.IdxAttachmentRisk] > 0.5 {
		reasons = append(reasons, "High-risk attachments detected")
	}
	if v[features.IdxWordlistMatch] > 0 {
		reasons = append(reasons, "Sensitive keywords detected")
	}

	if len(reasons) == 0 {
		return "Low risk communication"
	}
	return strings.Join(reasons, "; ")
}

func suspiciousJustification(justification string) bool {
	if justification == "" {
		return false
	}
	lower := strings.ToLower(justification)
	for _, term := range suspiciousJustificationTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
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
