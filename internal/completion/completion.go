// Package completion runs the "mark today complete" flow: a local pre-check
// against the streak engine, one write through the persistence collaborator,
// and exactly one notification describing the outcome.
package completion

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/habitkeep/internal/clock"
	"github.com/julianstephens/habitkeep/internal/logger"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/streak"
)

// Persister writes a completion for date and returns the habit as stored.
// It returns *streak.AlreadyCompletedError when date is already recorded.
type Persister interface {
	UpdateHabitCompletion(ctx context.Context, habitID, date string) (models.Habit, error)
}

// Notifier receives the outcome of a completion attempt.
type Notifier interface {
	Success(habit models.Habit, streak int)
	AlreadyCompleted(habit models.Habit)
	Failure(habit models.Habit, err error)
}

// Result is a successful completion.
type Result struct {
	Habit  models.Habit
	Day    string
	Streak int
}

type Service struct {
	Persister Persister
	Notifier  Notifier
	Clock     clock.Clock
	Location  *time.Location
}

func (s *Service) today() string {
	c := s.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	return clock.Today(c, s.Location)
}

// Complete records today's completion for habit.
//
// A habit already completed today never reaches the persister. When the write
// fails the caller's habit is untouched and the same call may be retried.
func (s *Service) Complete(ctx context.Context, habit models.Habit) (Result, error) {
	today := s.today()

	local, err := streak.RecordCompletion(habit, today)
	if err != nil {
		if errors.Is(err, streak.ErrAlreadyCompleted) {
			s.notifyAlreadyCompleted(habit)
		} else {
			s.notifyFailure(habit, err)
		}
		return Result{}, err
	}

	stored, err := s.Persister.UpdateHabitCompletion(ctx, habit.ID, today)
	if err != nil {
		if errors.Is(err, streak.ErrAlreadyCompleted) {
			logger.Info("Habit already completed on the server", "habit", habit.ID, "day", today)
			s.notifyAlreadyCompleted(habit)
			return Result{}, err
		}
		var pe *streak.PersistenceError
		if !errors.As(err, &pe) {
			err = &streak.PersistenceError{HabitID: habit.ID, Op: "complete", Err: err}
		}
		logger.Warn("Failed to persist completion", "habit", habit.ID, "day", today, "error", err)
		s.notifyFailure(habit, err)
		return Result{}, err
	}

	// The stored history is authoritative. A server on a different day can
	// return a history without today, which is still a successful write.
	if stored.ID == "" {
		stored = habit
		stored.CompletionHistory = local.History
	}
	stored, drift := streak.Reconcile(stored, today)
	if drift != nil {
		logger.Debug("Recomputed streak after completion", "habit", habit.ID, "error", drift)
	}

	res := Result{Habit: stored, Day: today, Streak: stored.CurrentStreak}
	if s.Notifier != nil {
		s.Notifier.Success(stored, res.Streak)
	}
	return res, nil
}

// CompleteAsync runs Complete on its own goroutine and calls exactly one of
// onSuccess or onError. The returned channel is closed after the callback
// returns.
func (s *Service) CompleteAsync(ctx context.Context, habit models.Habit, onSuccess func(Result), onError func(error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := s.Complete(ctx, habit)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(res)
		}
	}()
	return done
}

func (s *Service) notifyAlreadyCompleted(habit models.Habit) {
	if s.Notifier != nil {
		s.Notifier.AlreadyCompleted(habit)
	}
}

func (s *Service) notifyFailure(habit models.Habit, err error) {
	if s.Notifier != nil {
		s.Notifier.Failure(habit, err)
	}
}
