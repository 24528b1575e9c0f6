// Package sessions implements the processing-session domain for egresswatch.
// A session groups the records of one ingested batch and tracks the
// completion state of each classification stage independently, so callers
// can observe exactly which stages succeeded and selectively reprocess.
package sessions

import (
	"time"

	"github.com/google/uuid"

	"github.com/egresswatch/egresswatch/internal/records"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Stage identifies one of the four ordered classification stages.
type Stage string

const (
	StageExclusion Stage = "exclusion"
	StageWhitelist Stage = "whitelist"
	StageRules     Stage = "rules"
	StageML        Stage = "ml"
)

// Stages lists the classification stages in execution order.
var Stages = []Stage{StageExclusion, StageWhitelist, StageRules, StageML}

// Stats captures per-session aggregate results published on completion.
type Stats struct {
	records.Counters

	AnalyzedRecords  int            `json:"analyzed_records"`
	AnomalyRate      float64        `json:"anomaly_rate"`
	AverageRiskScore float64        `json:"average_risk_score"`
	RiskDistribution map[string]int `json:"risk_distribution,omitempty"`
}

// Session tracks one batch of records through the classification workflow.
// The four stage booleans are independent: a completed session may still
// report individual stages as not applied when they failed, with detail
// confined to logs and Warnings.
type Session struct {
	ID               uuid.UUID `json:"id"`
	Source           string    `json:"source"`
	Status           Status    `json:"status"`
	TotalRecords     int       `json:"total_records"`
	ProcessedRecords int       `json:"processed_records"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	Warnings         []string  `json:"warnings,omitempty"`
	Stats            *Stats    `json:"stats,omitempty"`

	ExclusionApplied bool `json:"exclusion_applied"`
	WhitelistApplied bool `json:"whitelist_applied"`
	RulesApplied     bool `json:"rules_applied"`
	MLApplied        bool `json:"ml_applied"`

	UploadedAt time.Time `json:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StageApplied reports the completion flag for the given stage.
func (s *Session) StageApplied(stage Stage) bool {
	switch stage {
	case StageExclusion:
		return s.ExclusionApplied
	case StageWhitelist:
		return s.WhitelistApplied
	case StageRules:
		return s.RulesApplied
	case StageML:
		return s.MLApplied
	default:
		return false
	}
}

// CreateCommand carries the data needed to register a new session.
type CreateCommand struct {
	Source       string
	TotalRecords int
}
