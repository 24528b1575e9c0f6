package rules

import "errors"

// Domain errors for rule operations.
var (
	ErrNotFound  = errors.New("rule not found")
	ErrDuplicate = errors.New("rule already exists")
)
