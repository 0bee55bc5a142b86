package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitkeep/internal/clock"
	"github.com/julianstephens/habitkeep/internal/completion"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/streak"
)

const today = "2024-03-10"

type fakeBackend struct {
	mu      sync.Mutex
	habits  map[string]models.Habit
	order   []string
	deleted []string
}

func newFakeBackend(habits ...models.Habit) *fakeBackend {
	b := &fakeBackend{habits: map[string]models.Habit{}}
	for _, h := range habits {
		b.habits[h.ID] = h
		b.order = append(b.order, h.ID)
	}
	return b
}

func (b *fakeBackend) ListMine(ctx context.Context, includeDeleted bool) ([]models.Habit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Habit
	for _, id := range b.order {
		h := b.habits[id]
		if h.DeletedAt != nil && !includeDeleted {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (b *fakeBackend) Create(ctx context.Context, in models.HabitInput) (models.Habit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := models.Habit{ID: "new", Title: in.Title, Category: in.Category}
	b.habits[h.ID] = h
	b.order = append(b.order, h.ID)
	return h, nil
}

func (b *fakeBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.habits[id]
	now := time.Now()
	h.DeletedAt = &now
	b.habits[id] = h
	b.deleted = append(b.deleted, id)
	return nil
}

func (b *fakeBackend) Restore(ctx context.Context, id string) (models.Habit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.habits[id]
	h.DeletedAt = nil
	b.habits[id] = h
	return h, nil
}

func (b *fakeBackend) Today() string { return today }

// UpdateHabitCompletion makes the fake backend its own persister.
func (b *fakeBackend) UpdateHabitCompletion(ctx context.Context, id, date string) (models.Habit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.habits[id]
	if streak.IsCompletedToday(h.CompletionHistory, date) {
		return models.Habit{}, &streak.AlreadyCompletedError{HabitID: id, Day: date}
	}
	h.CompletionHistory = append(append([]string{}, h.CompletionHistory...), date)
	h.CurrentStreak = streak.Compute(h.CompletionHistory, date)
	b.habits[id] = h
	return h, nil
}

func newTestModel(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	svc := &completion.Service{
		Persister: b,
		Clock:     clock.NewFixed(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)),
		Location:  time.UTC,
	}
	m := NewModel(b, svc, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return update(t, m, m.Init()())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and runs the resulting command once, feeding its message
// back into the model.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	m = next.(Model)
	if cmd == nil {
		return m
	}
	msg := cmd()
	next, cmd = m.Update(msg)
	m = next.(Model)
	// Follow-up reloads.
	if cmd != nil {
		if msg := cmd(); msg != nil {
			if _, ok := msg.(habitsLoadedMsg); ok {
				m = update(t, m, msg)
			}
		}
	}
	return m
}

func TestLoadsHabits(t *testing.T) {
	b := newFakeBackend(
		models.Habit{ID: "h1", Title: "Read", Category: "Evening", CompletionHistory: []string{today}, CurrentStreak: 1},
		models.Habit{ID: "h2", Title: "Run", Category: "Fitness"},
	)
	m := newTestModel(t, b)

	items := m.list.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0].(Item)
	if !first.IsDone() || !strings.HasPrefix(first.Title(), "✓") {
		t.Errorf("first item should be done, got %q", first.Title())
	}
	if got := items[1].(Item).Title(); got != "○ Run" {
		t.Errorf("second item title = %q", got)
	}
}

func TestCompleteSelectedHabit(t *testing.T) {
	b := newFakeBackend(models.Habit{ID: "h1", Title: "Run", Category: "Fitness", CompletionHistory: []string{"2024-03-09"}, CurrentStreak: 1})
	m := newTestModel(t, b)

	m = press(t, m, "c")

	if m.busy {
		t.Error("model should not be busy after completion")
	}
	if m.statusFailed {
		t.Errorf("unexpected failure status: %q", m.status)
	}
	if !strings.Contains(m.status, "Run complete! Streak: 2 days") {
		t.Errorf("status = %q", m.status)
	}
	if item := m.list.Items()[0].(Item); !item.IsDone() || item.Habit.CurrentStreak != 2 {
		t.Errorf("list not refreshed: %+v", item.Habit)
	}
}

func TestCompleteTwiceShowsAlreadyCompleted(t *testing.T) {
	b := newFakeBackend(models.Habit{ID: "h1", Title: "Run", Category: "Fitness"})
	m := newTestModel(t, b)

	m = press(t, m, "c")
	m = press(t, m, "c")

	if !strings.Contains(m.status, "already completed today") {
		t.Errorf("status = %q", m.status)
	}
	if got := b.habits["h1"].CompletionHistory; len(got) != 1 {
		t.Errorf("history = %v, want one entry", got)
	}
}

func TestCompleteIgnoredWhileBusy(t *testing.T) {
	b := newFakeBackend(models.Habit{ID: "h1", Title: "Run", Category: "Fitness"})
	m := newTestModel(t, b)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = next.(Model)
	if cmd == nil || !m.busy {
		t.Fatal("first press should start a completion")
	}
	_, cmd2 := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if cmd2 != nil {
		t.Error("second press while busy should be ignored")
	}
}

func TestDeleteAndRestore(t *testing.T) {
	b := newFakeBackend(models.Habit{ID: "h1", Title: "Run", Category: "Fitness"})
	m := newTestModel(t, b)

	m = press(t, m, "d")
	if m.state != StateConfirmDelete {
		t.Fatalf("state = %v, want confirm delete", m.state)
	}
	if view := m.View(); !strings.Contains(view, `Delete "Run"?`) {
		t.Errorf("confirm view missing habit title:\n%s", view)
	}
	m = press(t, m, "y")
	if len(b.deleted) != 1 || b.deleted[0] != "h1" {
		t.Fatalf("deleted = %v", b.deleted)
	}
	if len(m.list.Items()) != 0 {
		t.Errorf("deleted habit still listed")
	}

	m = press(t, m, "x")
	if !m.showDeleted || len(m.list.Items()) != 1 {
		t.Fatalf("expected deleted habit to be shown")
	}
	m = press(t, m, "r")
	if b.habits["h1"].DeletedAt != nil {
		t.Error("habit was not restored")
	}
}

func TestCancelDelete(t *testing.T) {
	b := newFakeBackend(models.Habit{ID: "h1", Title: "Run", Category: "Fitness"})
	m := newTestModel(t, b)

	m = press(t, m, "d")
	m = press(t, m, "n")
	if m.state != StateList || len(b.deleted) != 0 {
		t.Errorf("delete should have been cancelled")
	}
}

func TestAddOpensForm(t *testing.T) {
	m := newTestModel(t, newFakeBackend())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = next.(Model)
	if m.state != StateAddHabit || m.form == nil {
		t.Fatalf("expected add form, state = %v", m.state)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != StateList {
		t.Errorf("esc should close the form")
	}
}

func TestEmptyView(t *testing.T) {
	m := newTestModel(t, newFakeBackend())
	if !strings.Contains(m.View(), "No habits yet") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}
