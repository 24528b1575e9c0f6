package sessions

import (
	"context"

	"github.com/google/uuid"
)

// Store defines the public contract for session persistence.
type Store interface {
	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	Create(ctx context.Context, cmd CreateCommand) (*Session, error)

	// Pending returns the IDs of sessions awaiting processing, oldest first.
	Pending(ctx context.Context, limit int) ([]uuid.UUID, error)

	SetStatus(ctx context.Context, id uuid.UUID, status Status, errorMessage string) error
	SetProgress(ctx context.Context, id uuid.UUID, processed int) error
	AddWarning(ctx context.Context, id uuid.UUID, warning string) error
	MarkStage(ctx context.Context, id uuid.UUID, stage Stage, applied bool) error
	SetStats(ctx context.Context, id uuid.UUID, stats Stats) error
}
