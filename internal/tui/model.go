package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitkeep/internal/completion"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/notifier"
)

// Backend is the part of the API client the dashboard uses.
type Backend interface {
	ListMine(ctx context.Context, includeDeleted bool) ([]models.Habit, error)
	Create(ctx context.Context, in models.HabitInput) (models.Habit, error)
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) (models.Habit, error)
	Today() string
}

type SessionState int

const (
	StateList SessionState = iota
	StateAddHabit
	StateConfirmDelete
)

type HabitFormModel struct {
	Title       string
	Description string
	Category    string
	Private     bool
}

type (
	habitsLoadedMsg struct {
		habits []models.Habit
		today  string
		err    error
	}
	// completionDoneMsg carries the single notifier message for one attempt.
	completionDoneMsg struct {
		text   string
		failed bool
	}
	habitChangedMsg struct {
		text string
		err  error
	}
)

type Model struct {
	backend         Backend
	completer       *completion.Service
	extraNotifier   completion.Notifier
	state           SessionState
	keys            KeyMap
	help            help.Model
	list            list.Model
	form            *huh.Form
	habitForm       *HabitFormModel
	habitToDeleteID string
	showDeleted     bool
	busy            bool
	status          string
	statusFailed    bool
	quitting        bool
	width           int
	height          int
}

// NewModel builds the dashboard. extra receives every completion outcome in
// addition to the status line (the tray app, for instance) and may be nil.
func NewModel(backend Backend, completer *completion.Service, extra completion.Notifier) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	return Model{
		backend:       backend,
		completer:     completer,
		extraNotifier: extra,
		state:         StateList,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		list:          l,
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadHabits()
}

func (m Model) loadHabits() tea.Cmd {
	backend, deleted := m.backend, m.showDeleted
	return func() tea.Msg {
		habits, err := backend.ListMine(context.Background(), deleted)
		return habitsLoadedMsg{habits: habits, today: backend.Today(), err: err}
	}
}

// completeHabit runs the completion flow off the UI goroutine. The service's
// notifier is swapped for one that captures the message for the status line.
func (m Model) completeHabit(h models.Habit) tea.Cmd {
	svc := *m.completer
	extra := m.extraNotifier
	return func() tea.Msg {
		var msg completionDoneMsg
		var n completion.Notifier = notifier.Func(func(text string, failed bool) {
			msg = completionDoneMsg{text: text, failed: failed}
		})
		if extra != nil {
			n = notifier.Multi{n, extra}
		}
		svc.Notifier = n
		<-svc.CompleteAsync(context.Background(), h, nil, nil)
		return msg
	}
}

func (m Model) createHabit(form HabitFormModel) tea.Cmd {
	backend := m.backend
	public := !form.Private
	in := models.HabitInput{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		IsPublic:    &public,
	}
	return func() tea.Msg {
		h, err := backend.Create(context.Background(), in)
		return habitChangedMsg{text: "Added " + h.Title, err: err}
	}
}

func (m Model) deleteHabit(id string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		err := backend.Delete(context.Background(), id)
		return habitChangedMsg{text: "Habit deleted", err: err}
	}
}

func (m Model) restoreHabit(id string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		h, err := backend.Restore(context.Background(), id)
		return habitChangedMsg{text: "Restored " + h.Title, err: err}
	}
}

func newHabitForm(f *HabitFormModel) *huh.Form {
	options := make([]huh.Option[string], 0, len(constants.Categories))
	for _, c := range constants.Categories {
		options = append(options, huh.NewOption(c, c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&f.Title).
				Validate(func(s string) error {
					if s == "" {
						return errTitleRequired
					}
					return nil
				}),
			huh.NewText().
				Title("Description (markdown)").
				Value(&f.Description),
			huh.NewSelect[string]().
				Title("Category").
				Options(options...).
				Value(&f.Category),
			huh.NewConfirm().
				Title("Keep private?").
				Value(&f.Private),
		),
	)
}

func (m *Model) setHabits(habits []models.Habit, today string) {
	items := make([]list.Item, len(habits))
	for i, h := range habits {
		items[i] = Item{Habit: h, Today: today}
	}
	m.list.SetItems(items)
}

func (m Model) selected() (Item, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i, ok
}
