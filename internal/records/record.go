// Package records implements the communication-record domain for egresswatch.
// It provides the Record model, an enumerated field accessor table used by the
// rule engine, and Postgres data access for per-session record batches.
package records

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RiskLevel is the calibrated classification band for a record.
type RiskLevel string

const (
	LevelLow      RiskLevel = "Low"
	LevelMedium   RiskLevel = "Medium"
	LevelHigh     RiskLevel = "High"
	LevelCritical RiskLevel = "Critical"
)

// CaseStatus tracks the review state of a record in the triage queue.
type CaseStatus string

const (
	CaseActive    CaseStatus = "Active"
	CaseCleared   CaseStatus = "Cleared"
	CaseEscalated CaseStatus = "Escalated"
)

// RuleMatch is one structured security-rule hit recorded on a record.
// Actions carries the matched rule's action document verbatim so reviewers
// can see what was applied without resolving the rule again.
type RuleMatch struct {
	RuleID   int64           `json:"rule_id"`
	Name     string          `json:"rule_name"`
	Priority int             `json:"priority"`
	Actions  json.RawMessage `json:"actions,omitempty"`
}

// Record is one unit of communication metadata under classification.
// Input fields are populated at ingestion and never modified afterwards;
// classification outputs are each owned by exactly one pipeline stage.
type Record struct {
	ID        int64     `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	RecordID  string    `json:"record_id"`

	// Ingested fields.
	Time               string `json:"time"`
	Sender             string `json:"sender"`
	Subject            string `json:"subject"`
	Attachments        string `json:"attachments"`
	Recipients         string `json:"recipients"`
	RecipientDomain    string `json:"recipients_email_domain"`
	Leaver             string `json:"leaver"`
	TerminationDate    string `json:"termination_date"`
	WordlistAttachment string `json:"wordlist_attachment"`
	WordlistSubject    string `json:"wordlist_subject"`
	BusinessUnit       string `json:"bunit"`
	Department         string `json:"department"`
	Status             string `json:"status"`
	UserResponse       string `json:"user_response"`
	FinalOutcome       string `json:"final_outcome"`
	Justification      string `json:"justification"`
	PolicyName         string `json:"policy_name"`

	// Classification outputs.
	ExcludedByRule string      `json:"excluded_by_rule,omitempty"`
	Whitelisted    bool        `json:"whitelisted"`
	RuleMatches    []RuleMatch `json:"rule_matches,omitempty"`
	AnomalyScore   float64     `json:"anomaly_score"`
	RiskScore      float64     `json:"risk_score"`
	RiskLevel      RiskLevel   `json:"risk_level,omitempty"`
	Explanation    string      `json:"explanation,omitempty"`

	// Case management.
	CaseStatus  CaseStatus `json:"case_status"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`
}

// Excluded reports whether an exclusion rule has removed the record
// from further analysis.
func (r *Record) Excluded() bool {
	return r.ExcludedByRule != ""
}

// Analyzable reports whether the record participates in the security-rule
// and ML stages: neither excluded nor whitelisted.
func (r *Record) Analyzable() bool {
	return !r.Excluded() && !r.Whitelisted
}

// LevelFor maps a fused risk score onto a risk level given the configured
// thresholds (critical, high, medium).
func LevelFor(score, critical, high, medium float64) RiskLevel {
	switch {
	case score >= critical:
		return LevelCritical
	case score >= high:
		return LevelHigh
	case score >= medium:
		return LevelMedium
	default:
		return LevelLow
	}
}
