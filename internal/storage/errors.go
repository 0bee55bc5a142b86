package storage

import "errors"

var (
	// ErrNotFound is returned when a habit does not exist or is soft-deleted.
	ErrNotFound = errors.New("habit not found")
	// ErrAlreadyCompleted is returned when the (habit, day) completion row exists.
	ErrAlreadyCompleted = errors.New("completion already recorded for this day")
	// ErrNotInitialized is returned by Load when the database has not been created.
	ErrNotInitialized = errors.New("storage not initialized, run 'habitkeep init' first")
)

