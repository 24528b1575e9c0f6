package workflow

import (
	"errors"
	"fmt"

	"github.com/egresswatch/egresswatch/internal/sessions"
)

// Domain errors for workflow operations.
var (
	ErrSessionBusy = errors.New("session is already being processed")
	ErrEmptyBatch  = errors.New("batch contains no records")
)

// StageError wraps a sub-stage failure. Stage errors never fail the
// session; they surface as warnings while the remaining stages run.
type StageError struct {
	Stage sessions.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage sessions.Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
