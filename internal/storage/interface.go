package storage

import (
	"context"

	"github.com/julianstephens/habitkeep/internal/models"
)

// Provider is the server-side persistence for habits and their completions.
// CompletionHistory is derived from habit_completions; CurrentStreak is a
// cached scalar the caller keeps in sync through SetCurrentStreak.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	// GetHabit returns ErrNotFound for unknown or soft-deleted ids.
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	ListHabitsByOwner(ctx context.Context, ownerEmail string, includeDeleted bool) ([]models.Habit, error)
	ListPublicHabits(ctx context.Context, filter models.HabitFilter) ([]models.Habit, error)
	// UpdateHabit writes display fields only; history and streak are untouched.
	UpdateHabit(ctx context.Context, habit models.Habit) error
	DeleteHabit(ctx context.Context, id string) error
	RestoreHabit(ctx context.Context, id string) error

	// Completions
	// AddCompletion records day for the habit at most once. A second insert
	// for the same (habit, day) returns ErrAlreadyCompleted.
	AddCompletion(ctx context.Context, habitID, day string) error
	GetCompletionHistory(ctx context.Context, habitID string) ([]string, error)
	SetCurrentStreak(ctx context.Context, habitID string, streak int) error

	// Utils
	GetConfigPath() string
}
