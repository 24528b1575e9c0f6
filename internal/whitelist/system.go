package whitelist

import "context"

// Store defines the public contract for whitelist persistence.
type Store interface {
	Active(ctx context.Context) ([]*Entry, error)

	// Add inserts the domain, reactivating an existing inactive entry
	// instead of duplicating it.
	Add(ctx context.Context, e *Entry) (*Entry, error)

	// Deactivate soft-removes a domain; history is kept.
	Deactivate(ctx context.Context, domain string) error
}
