package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitkeep/internal/logger"
	"github.com/julianstephens/habitkeep/internal/storage"
	"github.com/julianstephens/habitkeep/internal/streak"
	"github.com/julianstephens/habitkeep/internal/validation"
)

// Exit codes. Expected conditions such as an already-completed habit exit
// non-zero but distinct from failures so scripts can tell them apart.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitAlreadyCompleted = 2
	ExitInvalidInput     = 3
	ExitNotFound         = 4
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %s", Describe(err))
}

// Describe returns the user-facing text for err. Domain conditions get a
// fixed message; anything else is passed through.
func Describe(err error) string {
	var problems validation.Problems
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, streak.ErrAlreadyCompleted):
		return "already completed today, come back tomorrow"
	case stderrors.Is(err, streak.ErrPersistence):
		return fmt.Sprintf("failed to mark habit complete, try again (%v)", stderrors.Unwrap(err))
	case stderrors.Is(err, storage.ErrNotFound):
		return "habit not found"
	case stderrors.As(err, &problems):
		return "invalid habit: " + problems.Error()
	default:
		return err.Error()
	}
}

// ExitCode maps err onto the process exit code.
func ExitCode(err error) int {
	var problems validation.Problems
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, streak.ErrAlreadyCompleted):
		return ExitAlreadyCompleted
	case stderrors.As(err, &problems), stderrors.Is(err, streak.ErrInvalidDate):
		return ExitInvalidInput
	case stderrors.Is(err, storage.ErrNotFound):
		return ExitNotFound
	default:
		return ExitFailure
	}
}

type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// Reported marks err as already shown to the user, e.g. by a notifier. Fatal
// still exits with the mapped code but prints nothing.
func Reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was marked with Reported.
func IsReported(err error) bool {
	var r *reportedError
	return stderrors.As(err, &r)
}

// Fatal logs an error and exits the program with the mapped exit code.
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		if !IsReported(err) {
			fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		}
		os.Exit(ExitCode(err))
	}
}
