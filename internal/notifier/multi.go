package notifier

import (
	"github.com/julianstephens/habitkeep/internal/completion"
	"github.com/julianstephens/habitkeep/internal/models"
)

// Multi fans each notification out to every notifier in order.
type Multi []completion.Notifier

func (m Multi) Success(h models.Habit, streak int) {
	for _, n := range m {
		n.Success(h, streak)
	}
}

func (m Multi) AlreadyCompleted(h models.Habit) {
	for _, n := range m {
		n.AlreadyCompleted(h)
	}
}

func (m Multi) Failure(h models.Habit, err error) {
	for _, n := range m {
		n.Failure(h, err)
	}
}

// Func adapts a single callback into a notifier. The TUI uses it to route the
// message into its status line.
type Func func(text string, failed bool)

func (f Func) Success(h models.Habit, streak int) { f(successText(h, streak), false) }

func (f Func) AlreadyCompleted(h models.Habit) { f(alreadyText(h), false) }

func (f Func) Failure(h models.Habit, err error) { f(failureText(h, err), true) }
