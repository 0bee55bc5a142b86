// Package streak is the single implementation of streak arithmetic. Every
// caller, client or server, derives streaks and completion decisions here.
//
// Days are calendar-date strings (YYYY-MM-DD) in one configured timezone; the
// package never reads a clock. A completion history is treated as a set.
package streak

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/models"
)

// Completion is the outcome of recording today's completion.
type Completion struct {
	History []string
	Streak  int
}

// IsCompletedToday reports whether today is a member of history.
func IsCompletedToday(history []string, today string) bool {
	for _, day := range history {
		if day == today {
			return true
		}
	}
	return false
}

// Compute returns the current consecutive-day streak ending at today.
//
// Today's absence does not break the streak: when today is not recorded the
// walk starts at yesterday, so a streak stays alive until a full calendar day
// is missed. An unparsable today yields 0.
func Compute(history []string, today string) int {
	if len(history) == 0 {
		return 0
	}
	day, err := parseDay(today)
	if err != nil {
		return 0
	}

	set := toSet(history)
	if !set[today] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for set[day.Format(constants.DateFormat)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// RecordCompletion returns the habit's history with today added and the
// streak recomputed from that updated set. It performs no I/O; the caller
// persists the result and treats the remote write as the operation of record.
func RecordCompletion(habit models.Habit, today string) (Completion, error) {
	if _, err := parseDay(today); err != nil {
		return Completion{}, err
	}
	if IsCompletedToday(habit.CompletionHistory, today) {
		return Completion{}, &AlreadyCompletedError{HabitID: habit.ID, Day: today}
	}

	set := toSet(habit.CompletionHistory)
	set[today] = true
	history := make([]string, 0, len(set))
	for day := range set {
		history = append(history, day)
	}
	sort.Strings(history)

	return Completion{
		History: history,
		Streak:  Compute(history, today),
	}, nil
}

// Reconcile recomputes CurrentStreak from CompletionHistory. The corrected
// habit is always returned; an *InconsistentStateError is returned alongside
// it when the stored value had drifted.
func Reconcile(habit models.Habit, today string) (models.Habit, error) {
	computed := Compute(habit.CompletionHistory, today)
	if computed == habit.CurrentStreak {
		return habit, nil
	}
	stored := habit.CurrentStreak
	habit.CurrentStreak = computed
	return habit, &InconsistentStateError{HabitID: habit.ID, Stored: stored, Computed: computed}
}

// Longest returns the longest run of consecutive days anywhere in history.
// Entries that are not valid days are ignored.
func Longest(history []string) int {
	days := make([]time.Time, 0, len(history))
	for day := range toSet(history) {
		t, err := parseDay(day)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func toSet(history []string) map[string]bool {
	set := make(map[string]bool, len(history))
	for _, day := range history {
		set[day] = true
	}
	return set
}

// parseDay parses a calendar day as midnight UTC. Day arithmetic is done in
// UTC so AddDate never lands on a DST gap.
func parseDay(day string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, day)
	}
	return t, nil
}
