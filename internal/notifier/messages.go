package notifier

import (
	"fmt"

	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/streak"
)

func successText(h models.Habit, n int) string {
	days := "days"
	if n == 1 {
		days = "day"
	}
	return fmt.Sprintf("%s complete! Streak: %d %s. %s", h.Title, n, days, streak.TierFor(n).Label)
}

func alreadyText(h models.Habit) string {
	return fmt.Sprintf("%s is already completed today. Come back tomorrow!", h.Title)
}

func failureText(h models.Habit, err error) string {
	return fmt.Sprintf("Failed to mark %s complete: %v", h.Title, err)
}
