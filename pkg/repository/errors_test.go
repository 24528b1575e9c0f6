package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/egresswatch/egresswatch/pkg/repository"
)

func TestMapError(t *testing.T) {
	notFound := errors.New("not found")
	duplicate := errors.New("duplicate")
	canceled := &pgconn.PgError{Code: "57014"}
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows maps to not found", sql.ErrNoRows, notFound},
		{"wrapped no rows maps to not found", fmt.Errorf("find: %w", sql.ErrNoRows), notFound},
		{"foreign key violation maps to not found", &pgconn.PgError{Code: "23503"}, notFound},
		{"unique violation maps to duplicate", &pgconn.PgError{Code: "23505"}, duplicate},
		{"wrapped unique violation maps to duplicate", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), duplicate},
		{"other pg errors pass through", canceled, canceled},
		{"other errors pass through", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repository.MapError(tt.err, notFound, duplicate); !errors.Is(got, tt.want) {
				t.Errorf("MapError() = %v, want %v", got, tt.want)
			}
		})
	}
}
