package sessions

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

// New creates a session repository implementing the Store interface.
func New(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "sessions"),
	}
}

const sessionColumns = `
	id, source, status, total_records, processed_records,
	error_message, warnings, stats,
	exclusion_applied, whitelist_applied, rules_applied, ml_applied,
	uploaded_at, updated_at`

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	q := "SELECT" + sessionColumns + `
		FROM sessions
		WHERE id = $1`

	s, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanSession)
	if err != nil {
		return nil, repository.MapError(
			fmt.Errorf("find session %s: %w", id, err),
			ErrNotFound, ErrDuplicate,
		)
	}
	return s, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Session, error) {
	q := `
		INSERT INTO sessions(id, source, status, total_records)
		VALUES ($1, $2, $3, $4)
		RETURNING` + sessionColumns

	id := uuid.New()
	s, err := repository.QueryOne(ctx, r.db, q,
		[]any{id, cmd.Source, StatusUploaded, cmd.TotalRecords}, scanSession)
	if err != nil {
		return nil, repository.MapError(
			fmt.Errorf("create session: %w", err),
			ErrNotFound, ErrDuplicate,
		)
	}

	r.logger.Info("session created", "session", s.ID, "source", s.Source, "records", s.TotalRecords)
	return s, nil
}

func (r *repo) Pending(ctx context.Context, limit int) ([]uuid.UUID, error) {
	q := `
		SELECT id
		FROM sessions
		WHERE status = $1
		ORDER BY uploaded_at
		LIMIT $2`

	ids, err := repository.QueryMany(ctx, r.db, q, []any{StatusUploaded, limit},
		func(s repository.Scanner) (uuid.UUID, error) {
			var id uuid.UUID
			err := s.Scan(&id)
			return id, err
		})
	if err != nil {
		return nil, fmt.Errorf("query pending sessions: %w", err)
	}
	return ids, nil
}

func (r *repo) SetStatus(ctx context.Context, id uuid.UUID, status Status, errorMessage string) error {
	q := `
		UPDATE sessions
		SET status = $1, error_message = $2, updated_at = now()
		WHERE id = $3`

	return r.exec(ctx, q, status, errorMessage, id)
}

func (r *repo) SetProgress(ctx context.Context, id uuid.UUID, processed int) error {
	q := `
		UPDATE sessions
		SET processed_records = $1, updated_at = now()
		WHERE id = $2`

	return r.exec(ctx, q, processed, id)
}

func (r *repo) AddWarning(ctx context.Context, id uuid.UUID, warning string) error {
	q := `
		UPDATE sessions
		SET warnings = warnings || to_jsonb($1::text), updated_at = now()
		WHERE id = $2`

	return r.exec(ctx, q, warning, id)
}

func (r *repo) MarkStage(ctx context.Context, id uuid.UUID, stage Stage, applied bool) error {
	var column string
	switch stage {
	case StageExclusion:
		column = "exclusion_applied"
	case StageWhitelist:
		column = "whitelist_applied"
	case StageRules:
		column = "rules_applied"
	case StageML:
		column = "ml_applied"
	default:
		return fmt.Errorf("mark stage: unknown stage %q", stage)
	}

	q := fmt.Sprintf(`
		UPDATE sessions
		SET %s = $1, updated_at = now()
		WHERE id = $2`, column)

	return r.exec(ctx, q, applied, id)
}

func (r *repo) SetStats(ctx context.Context, id uuid.UUID, stats Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode session stats: %w", err)
	}

	q := `
		UPDATE sessions
		SET stats = $1, updated_at = now()
		WHERE id = $2`

	return r.exec(ctx, q, data, id)
}

func (r *repo) exec(ctx context.Context, query string, args ...any) error {
	if err := repository.ExecExpectOne(ctx, r.db, query, args...); err != nil {
		return repository.MapError(fmt.Errorf("update session: %w", err), ErrNotFound, ErrDuplicate)
	}
	return nil
}

func scanSession(s repository.Scanner) (*Session, error) {
	var (
		sess         Session
		errorMessage sql.NullString
		warningsJSON []byte
		statsJSON    []byte
	)

	err := s.Scan(
		&sess.ID, &sess.Source, &sess.Status, &sess.TotalRecords, &sess.ProcessedRecords,
		&errorMessage, &warningsJSON, &statsJSON,
		&sess.ExclusionApplied, &sess.WhitelistApplied, &sess.RulesApplied, &sess.MLApplied,
		&sess.UploadedAt, &sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sess.ErrorMessage = errorMessage.String
	if len(warningsJSON) > 0 {
		if err := json.Unmarshal(warningsJSON, &sess.Warnings); err != nil {
			return nil, fmt.Errorf("decode session warnings: %w", err)
		}
	}
	if len(statsJSON) > 0 {
		var stats Stats
		if err := json.Unmarshal(statsJSON, &stats); err != nil {
			return nil, fmt.Errorf("decode session stats: %w", err)
		}
		sess.Stats = &stats
	}

	return &sess, nil
}
