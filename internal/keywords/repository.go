package keywords

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

// New creates a keyword repository implementing the Store interface.
func New(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "keywords"),
	}
}

const keywordColumns = `
	id, keyword, category, risk_score, active`

func (r *repo) Active(ctx context.Context) ([]*Keyword, error) {
	q := "SELECT" + keywordColumns + `
		FROM attachment_keywords
		WHERE active
		ORDER BY keyword`

	kws, err := repository.QueryMany(ctx, r.db, q, nil, scanKeyword)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	return kws, nil
}

func (r *repo) Upsert(ctx context.Context, k *Keyword) (*Keyword, error) {
	q := `
		INSERT INTO attachment_keywords(keyword, category, risk_score, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (keyword) DO UPDATE SET
			category = EXCLUDED.category,
			risk_score = EXCLUDED.risk_score,
			active = TRUE
		RETURNING` + keywordColumns

	word := strings.ToLower(strings.TrimSpace(k.Keyword))
	saved, err := repository.QueryOne(ctx, r.db, q, []any{word, k.Category, k.Weight}, scanKeyword)
	if err != nil {
		return nil, repository.MapError(
			fmt.Errorf("upsert keyword %q: %w", word, err),
			ErrNotFound, ErrDuplicate,
		)
	}
	return saved, nil
}

func (r *repo) Deactivate(ctx context.Context, keyword string) error {
	q := `
		UPDATE attachment_keywords
		SET active = FALSE
		WHERE keyword = $1`

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if err := repository.ExecExpectOne(ctx, r.db, q, keyword); err != nil {
		return repository.MapError(
			fmt.Errorf("deactivate keyword %q: %w", keyword, err),
			ErrNotFound, ErrDuplicate,
		)
	}

	r.logger.Info("keyword deactivated", "keyword", keyword)
	return nil
}

func scanKeyword(s repository.Scanner) (*Keyword, error) {
	var k Keyword
	err := s.Scan(&k.ID, &k.Keyword, &k.Category, &k.Weight, &k.Active)
	if err != nil {
		return nil, err
	}
	return &k, nil
}
