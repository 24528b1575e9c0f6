package keywords

import "errors"

// Domain errors for keyword operations.
var (
	ErrNotFound  = errors.New("keyword not found")
	ErrDuplicate = errors.New("keyword already exists")
)
