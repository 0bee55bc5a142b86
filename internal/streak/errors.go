package streak

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyCompleted marks a completion for a day that is already recorded.
	// It is a user-facing condition, not a failure.
	ErrAlreadyCompleted = errors.New("already completed today")
	// ErrPersistence marks a failed write through the persistence collaborator.
	ErrPersistence = errors.New("failed to persist completion")
	// ErrInconsistentState marks a stored streak that disagrees with its history.
	ErrInconsistentState = errors.New("stored streak does not match completion history")
	// ErrInvalidDate is returned for day strings that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date (expected YYYY-MM-DD)")
)

// AlreadyCompletedError reports that Day is already in the habit's history.
type AlreadyCompletedError struct {
	HabitID string
	Day     string
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("habit %s: %s (%s)", e.HabitID, ErrAlreadyCompleted, e.Day)
}

func (e *AlreadyCompletedError) Is(target error) bool { return target == ErrAlreadyCompleted }

// PersistenceError wraps a failure of the injected write operation. The same
// completion can be retried: the engine recomputes from the same base history.
type PersistenceError struct {
	HabitID string
	Op      string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("habit %s: %s: %s: %v", e.HabitID, ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

// InconsistentStateError reports drift between a persisted streak and the
// value recomputed from completion history.
type InconsistentStateError struct {
	HabitID  string
	Stored   int
	Computed int
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("habit %s: %s (stored %d, computed %d)", e.HabitID, ErrInconsistentState, e.Stored, e.Computed)
}

func (e *InconsistentStateError) Is(target error) bool { return target == ErrInconsistentState }
