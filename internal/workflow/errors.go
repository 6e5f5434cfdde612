// Package workflow owns the case state machine: stage-scoped edits, the
// per-stage completeness gates, and the forward-only transitions between
// stages.  Every operation takes the caller's role explicitly and checks it
// against the grant table before touching any state.
package workflow

import (
	"errors"
	"strings"
)

// ErrDenied is returned when the caller's role lacks the permission an
// operation requires.  It deliberately carries no detail about which
// permission was missing.
var ErrDenied = errors.New("not permitted")

// ErrNotFound is returned when the referenced case does not exist.
var ErrNotFound = errors.New("case not found")

// ErrStateConflict is returned when an edit, completion or delete targets a
// stage the case is not currently in: the work has already moved on, the
// stage has not been reached yet, or the case is terminal.  No mutation is
// performed.
var ErrStateConflict = errors.New("case is not in the targeted stage")

// ValidationError reports a failed stage gate.  Missing lists every field
// the stage still needs, so the caller can show actionable feedback.  The
// case is left untouched.
type ValidationError struct {
	Stage   string
	Missing []string
}

func (e *ValidationError) Error() string {
	return "stage " + e.Stage + " incomplete: " + strings.Join(e.Missing, ", ")
}
