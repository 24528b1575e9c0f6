package sessions

import "errors"

// Domain errors for session operations.
var (
	ErrNotFound  = errors.New("session not found")
	ErrDuplicate = errors.New("session already exists")
)
