package whitelist

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/egresswatch/egresswatch/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a whitelist repository implementing the Store interface.
func New(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "whitelist"),
	}
}

const entryColumns = `
	id, domain, domain_type, active, added_by, notes, added_at`

func (r *repo) Active(ctx context.Context) ([]*Entry, error) {
	q := "SELECT" + entryColumns + `
		FROM whitelist_domains
		WHERE active
		ORDER BY domain`

	entries, err := repository.QueryMany(ctx, r.db, q, nil, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query whitelist: %w", err)
	}
	return entries, nil
}

func (r *repo) Add(ctx context.Context, e *Entry) (*Entry, error) {
	q := `
		INSERT INTO whitelist_domains(domain, domain_type, active, added_by, notes)
		VALUES ($1, $2, TRUE, $3, $4)
		ON CONFLICT (domain) DO UPDATE SET
			active = TRUE,
			domain_type = EXCLUDED.domain_type,
			added_by = EXCLUDED.added_by,
			added_at = now()
		RETURNING` + entryColumns

	domain := strings.ToLower(strings.TrimSpace(e.Domain))
	saved, err := repository.QueryOne(ctx, r.db, q,
		[]any{domain, e.Type, e.AddedBy, e.Notes}, scanEntry)
	if err != nil {
		return nil, repository.MapError(
			fmt.Errorf("add whitelist domain %q: %w", domain, err),
			ErrNotFound, ErrDuplicate,
		)
	}

	r.logger.Info("whitelist domain added", "domain", saved.Domain, "by", saved.AddedBy)
	return saved, nil
}

func (r *repo) Deactivate(ctx context.Context, domain string) error {
	q := `
		UPDATE whitelist_domains
		SET active = FALSE
		WHERE domain = $1`

	domain = strings.ToLower(strings.TrimSpace(domain))
	if err := repository.ExecExpectOne(ctx, r.db, q, domain); err != nil {
		return repository.MapError(
			fmt.Errorf("deactivate whitelist domain %q: %w", domain, err),
			ErrNotFound, ErrDuplicate,
		)
	}

	r.logger.Info("whitelist domain deactivated", "domain", domain)
	return nil
}

func scanEntry(s repository.Scanner) (*Entry, error) {
	var (
		e          Entry
		domainType sql.NullString
		addedBy    sql.NullString
		notes      sql.NullString
	)

	err := s.Scan(&e.ID, &e.Domain, &domainType, &e.Active, &addedBy, &notes, &e.AddedAt)
	if err != nil {
		return nil, err
	}

	e.Type = domainType.String
	e.AddedBy = addedBy.String
	e.Notes = notes.String
	return &e, nil
}
