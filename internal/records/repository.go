package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/egresswatch/egresswatch/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a record repository implementing the Store interface.
func New(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "records"),
	}
}

const recordColumns = `
	id, session_id, record_id,
	time, sender, subject, attachments, recipients, recipients_email_domain,
	leaver, termination_date, wordlist_attachment, wordlist_subject,
	bunit, department, status, user_response, final_outcome, justification, policy_name,
	excluded_by_rule, whitelisted, rule_matches,
	anomaly_score, risk_score, risk_level, explanation,
	case_status, assigned_to, notes, escalated_at`

func (r *repo) BySession(ctx context.Context, sessionID uuid.UUID) ([]*Record, error) {
	q := "SELECT" + recordColumns + `
		FROM records
		WHERE session_id = $1
		ORDER BY id`

	recs, err := repository.QueryMany(ctx, r.db, q, []any{sessionID}, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query session records: %w", err)
	}
	return recs, nil
}

func (r *repo) InsertBatch(ctx context.Context, recs []*Record) error {
	q := `
		INSERT INTO records(
			session_id, record_id,
			time, sender, subject, attachments, recipients, recipients_email_domain,
			leaver, termination_date, wordlist_attachment, wordlist_subject,
			bunit, department, status, user_response, final_outcome, justification, policy_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`

	err := repository.InsertMany(ctx, r.db, q, recs,
		func(rec *Record) []any {
			return []any{
				rec.SessionID, rec.RecordID,
				rec.Time, rec.Sender, rec.Subject, rec.Attachments, rec.Recipients, rec.RecipientDomain,
				rec.Leaver, rec.TerminationDate, rec.WordlistAttachment, rec.WordlistSubject,
				rec.BusinessUnit, rec.Department, rec.Status, rec.UserResponse,
				rec.FinalOutcome, rec.Justification, rec.PolicyName,
			}
		},
		func(rec *Record) []any { return []any{&rec.ID} },
	)

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("records inserted", "count", len(recs))
	return nil
}

func (r *repo) SaveExclusions(ctx context.Context, recs []*Record) error {
	return r.updateEach(ctx, recs,
		"UPDATE records SET excluded_by_rule = $1 WHERE id = $2",
		func(rec *Record) []any { return []any{rec.ExcludedByRule, rec.ID} },
	)
}

func (r *repo) SaveWhitelisted(ctx context.Context, recs []*Record) error {
	return r.updateEach(ctx, recs,
		"UPDATE records SET whitelisted = $1 WHERE id = $2",
		func(rec *Record) []any { return []any{rec.Whitelisted, rec.ID} },
	)
}

func (r *repo) SaveRuleResults(ctx context.Context, recs []*Record) error {
	q := `
		UPDATE records
		SET rule_matches = $1, risk_score = $2, risk_level = $3,
			case_status = $4, assigned_to = $5, notes = $6, escalated_at = $7
		WHERE id = $8`

	return r.updateEach(ctx, recs, q, func(rec *Record) []any {
		return []any{
			marshalMatches(rec.RuleMatches), rec.RiskScore, nullable(string(rec.RiskLevel)),
			string(rec.CaseStatus), nullable(rec.AssignedTo), nullable(rec.Notes), rec.EscalatedAt,
			rec.ID,
		}
	})
}

func (r *repo) SaveScores(ctx context.Context, recs []*Record) error {
	q := `
		UPDATE records
		SET anomaly_score = $1, risk_score = $2, risk_level = $3, explanation = $4
		WHERE id = $5`

	return r.updateEach(ctx, recs, q, func(rec *Record) []any {
		return []any{
			rec.AnomalyScore, rec.RiskScore, nullable(string(rec.RiskLevel)),
			nullable(rec.Explanation), rec.ID,
		}
	})
}

func (r *repo) ClearExclusions(ctx context.Context, sessionID uuid.UUID) error {
	return r.clear(ctx, sessionID,
		"UPDATE records SET excluded_by_rule = '' WHERE session_id = $1")
}

func (r *repo) ClearWhitelisted(ctx context.Context, sessionID uuid.UUID) error {
	return r.clear(ctx, sessionID,
		"UPDATE records SET whitelisted = FALSE WHERE session_id = $1")
}

// ClearRuleResults also resets risk_score and risk_level on rows that had
// matches: SaveRuleResults wrote the security override into those columns,
// and a rules-only rerun must not inherit a stale Critical verdict. Rows
// without matches keep their scoring-stage values.
func (r *repo) ClearRuleResults(ctx context.Context, sessionID uuid.UUID) error {
	if err := r.clear(ctx, sessionID, `
		UPDATE records
		SET risk_score = 0, risk_level = NULL
		WHERE session_id = $1 AND jsonb_array_length(rule_matches) > 0`); err != nil {
		return err
	}

	return r.clear(ctx, sessionID, `
		UPDATE records
		SET rule_matches = '[]'::jsonb, case_status = 'Active',
			assigned_to = NULL, notes = NULL, escalated_at = NULL
		WHERE session_id = $1`)
}

func (r *repo) ClearScores(ctx context.Context, sessionID uuid.UUID) error {
	return r.clear(ctx, sessionID, `
		UPDATE records
		SET anomaly_score = 0, risk_score = 0, risk_level = NULL, explanation = NULL
		WHERE session_id = $1`)
}

func (r *repo) Counters(ctx context.Context, sessionID uuid.UUID) (Counters, error) {
	q := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE excluded_by_rule <> ''),
			COUNT(*) FILTER (WHERE whitelisted),
			COUNT(*) FILTER (WHERE jsonb_array_length(rule_matches) > 0),
			COUNT(*) FILTER (WHERE risk_level = 'Critical')
		FROM records
		WHERE session_id = $1`

	var c Counters
	err := r.db.QueryRowContext(ctx, q, sessionID).
		Scan(&c.Total, &c.Excluded, &c.Whitelisted, &c.RuleMatched, &c.Critical)
	if err != nil {
		return Counters{}, fmt.Errorf("count session results: %w", err)
	}
	return c, nil
}

func (r *repo) updateEach(
	ctx context.Context,
	recs []*Record,
	query string,
	args func(*Record) []any,
) error {
	if err := repository.ExecMany(ctx, r.db, query, recs, args); err != nil {
		return repository.MapError(fmt.Errorf("update records: %w", err), ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) clear(ctx context.Context, sessionID uuid.UUID, query string) error {
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("clear stage outputs: %w", err)
	}
	return nil
}

func scanRecord(s repository.Scanner) (*Record, error) {
	var (
		rec         Record
		matchesJSON []byte
		riskLevel   sql.NullString
		explanation sql.NullString
		assignedTo  sql.NullString
		notes       sql.NullString
		escalatedAt sql.NullTime
	)

	err := s.Scan(
		&rec.ID, &rec.SessionID, &rec.RecordID,
		&rec.Time, &rec.Sender, &rec.Subject, &rec.Attachments, &rec.Recipients, &rec.RecipientDomain,
		&rec.Leaver, &rec.TerminationDate, &rec.WordlistAttachment, &rec.WordlistSubject,
		&rec.BusinessUnit, &rec.Department, &rec.Status, &rec.UserResponse,
		&rec.FinalOutcome, &rec.Justification, &rec.PolicyName,
		&rec.ExcludedByRule, &rec.Whitelisted, &matchesJSON,
		&rec.AnomalyScore, &rec.RiskScore, &riskLevel, &explanation,
		&rec.CaseStatus, &assignedTo, &notes, &escalatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(matchesJSON) > 0 {
		if err := json.Unmarshal(matchesJSON, &rec.RuleMatches); err != nil {
			return nil, fmt.Errorf("decode rule matches: %w", err)
		}
	}
	rec.RiskLevel = RiskLevel(riskLevel.String)
	rec.Explanation = explanation.String
	rec.AssignedTo = assignedTo.String
	rec.Notes = notes.String
	if escalatedAt.Valid {
		t := escalatedAt.Time
		rec.EscalatedAt = &t
	}

	return &rec, nil
}

func marshalMatches(matches []RuleMatch) []byte {
	if len(matches) == 0 {
		return []byte("[]")
	}
	data, err := json.Marshal(matches)
	if err != nil {
		return []byte("[]")
	}
	return data
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
