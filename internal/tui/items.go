package tui

import (
	"fmt"

	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/streak"
)

// Item is one habit row in the list.
type Item struct {
	Habit models.Habit
	Today string
}

func (i Item) IsDeleted() bool { return i.Habit.DeletedAt != nil }

func (i Item) IsDone() bool {
	return streak.IsCompletedToday(i.Habit.CompletionHistory, i.Today)
}

func (i Item) Title() string {
	switch {
	case i.IsDeleted():
		return "[DELETED] " + i.Habit.Title
	case i.IsDone():
		return "✓ " + i.Habit.Title
	default:
		return "○ " + i.Habit.Title
	}
}

func (i Item) Description() string {
	if i.IsDeleted() {
		return "can restore with 'r'"
	}
	days := "days"
	if i.Habit.CurrentStreak == 1 {
		days = "day"
	}
	return fmt.Sprintf("%s · streak %d %s · %s",
		i.Habit.Category, i.Habit.CurrentStreak, days, streak.TierFor(i.Habit.CurrentStreak).Label)
}

func (i Item) FilterValue() string { return i.Habit.Title }
