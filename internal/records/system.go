package records

import (
	"context"

	"github.com/google/uuid"
)

// Counters aggregates per-session classification results for reporting.
type Counters struct {
	Total       int `json:"total"`
	Excluded    int `json:"excluded_count"`
	Whitelisted int `json:"whitelisted_count"`
	RuleMatched int `json:"rule_match_count"`
	Critical    int `json:"critical_count"`
}

// Store defines the public contract for record persistence.
//
// Each Save method writes only the output fields owned by one pipeline
// stage; each Clear method resets exactly those fields so a stage can be
// selectively re-run without disturbing the others.
type Store interface {
	BySession(ctx context.Context, sessionID uuid.UUID) ([]*Record, error)
	InsertBatch(ctx context.Context, recs []*Record) error

	SaveExclusions(ctx context.Context, recs []*Record) error
	SaveWhitelisted(ctx context.Context, recs []*Record) error
	SaveRuleResults(ctx context.Context, recs []*Record) error
	SaveScores(ctx context.Context, recs []*Record) error

	ClearExclusions(ctx context.Context, sessionID uuid.UUID) error
	ClearWhitelisted(ctx context.Context, sessionID uuid.UUID) error
	ClearRuleResults(ctx context.Context, sessionID uuid.UUID) error
	ClearScores(ctx context.Context, sessionID uuid.UUID) error

	Counters(ctx context.Context, sessionID uuid.UUID) (Counters, error)
}
