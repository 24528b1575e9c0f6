package whitelist

import "errors"

// Domain errors for whitelist operations.
var (
	ErrNotFound  = errors.New("whitelist domain not found")
	ErrDuplicate = errors.New("whitelist domain already exists")
)
