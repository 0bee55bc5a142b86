package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func fixedNow(t *testing.T, now time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })
}

func testHabit(id, owner string) models.Habit {
	return models.Habit{
		ID:         id,
		Title:      "Read 20 pages",
		Category:   "Study",
		OwnerEmail: owner,
		OwnerName:  "Reader",
		CreatedAt:  time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestLoadUninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); !errors.Is(err, storage.ErrNotInitialized) {
		t.Errorf("Load() error = %v, want %v", err, storage.ErrNotInitialized)
	}
}

func TestInitThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "habitkeep.db")
	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer reopened.Close()

	st, err := reopened.MigrationStatus(context.Background())
	if err != nil {
		t.Fatalf("MigrationStatus() failed: %v", err)
	}
	if !st.UpToDate() || st.Current == 0 {
		t.Errorf("MigrationStatus() = %+v, want up to date", st)
	}
	if reopened.GetConfigPath() != path {
		t.Errorf("GetConfigPath() = %q, want %q", reopened.GetConfigPath(), path)
	}
}

func TestAddAndGetHabit(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	h := testHabit("h1", "a@example.com")
	h.Description = "Any book counts"
	h.ReminderTime = "07:30"
	h.IsPublic = true
	h.CompletionHistory = []string{"2024-03-02", "2024-03-01"}

	if err := store.AddHabit(ctx, h); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}

	got, err := store.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHabit() failed: %v", err)
	}

	want := h
	want.CompletionHistory = []string{"2024-03-01", "2024-03-02"}
	want.UpdatedAt = h.CreatedAt
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetHabit() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetHabitNotFound(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.GetHabit(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetHabit() error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestHabitSoftDelete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := store.AddHabit(ctx, testHabit("h1", "a@example.com")); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}

	if err := store.DeleteHabit(ctx, "h1"); err != nil {
		t.Fatalf("DeleteHabit() failed: %v", err)
	}
	if _, err := store.GetHabit(ctx, "h1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetHabit() after delete error = %v, want not found", err)
	}
	if err := store.DeleteHabit(ctx, "h1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteHabit() error = %v, want not found", err)
	}

	active, err := store.ListHabitsByOwner(ctx, "a@example.com", false)
	if err != nil {
		t.Fatalf("ListHabitsByOwner() failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active habits, got %d", len(active))
	}

	all, err := store.ListHabitsByOwner(ctx, "a@example.com", true)
	if err != nil {
		t.Fatalf("ListHabitsByOwner(includeDeleted) failed: %v", err)
	}
	if len(all) != 1 || all[0].DeletedAt == nil {
		t.Fatalf("expected one deleted habit, got %+v", all)
	}

	if err := store.RestoreHabit(ctx, "h1"); err != nil {
		t.Fatalf("RestoreHabit() failed: %v", err)
	}
	if _, err := store.GetHabit(ctx, "h1"); err != nil {
		t.Errorf("GetHabit() after restore failed: %v", err)
	}
	if err := store.RestoreHabit(ctx, "h1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("RestoreHabit() on active habit error = %v, want not found", err)
	}
}

func TestUpdateHabitLeavesHistory(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	fixedNow(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))

	h := testHabit("h1", "a@example.com")
	h.CompletionHistory = []string{"2024-03-04"}
	h.CurrentStreak = 1
	if err := store.AddHabit(ctx, h); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}

	h.Title = "Read 30 pages"
	h.IsPublic = true
	h.CompletionHistory = nil
	h.CurrentStreak = 99
	if err := store.UpdateHabit(ctx, h); err != nil {
		t.Fatalf("UpdateHabit() failed: %v", err)
	}

	got, err := store.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHabit() failed: %v", err)
	}
	if got.Title != "Read 30 pages" || !got.IsPublic {
		t.Errorf("display fields not updated: %+v", got)
	}
	if diff := cmp.Diff([]string{"2024-03-04"}, got.CompletionHistory); diff != "" {
		t.Errorf("history changed by UpdateHabit (-want +got):\n%s", diff)
	}
	if got.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", got.CurrentStreak)
	}
	if !got.UpdatedAt.Equal(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}

	if err := store.UpdateHabit(ctx, testHabit("missing", "a@example.com")); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateHabit(missing) error = %v, want not found", err)
	}
}

func TestAddCompletionAtMostOnce(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := store.AddHabit(ctx, testHabit("h1", "a@example.com")); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}

	if err := store.AddCompletion(ctx, "h1", "2024-03-10"); err != nil {
		t.Fatalf("AddCompletion() failed: %v", err)
	}
	if err := store.AddCompletion(ctx, "h1", "2024-03-10"); !errors.Is(err, storage.ErrAlreadyCompleted) {
		t.Errorf("second AddCompletion() error = %v, want %v", err, storage.ErrAlreadyCompleted)
	}
	if err := store.AddCompletion(ctx, "h1", "2024-03-09"); err != nil {
		t.Fatalf("AddCompletion(prev day) failed: %v", err)
	}

	history, err := store.GetCompletionHistory(ctx, "h1")
	if err != nil {
		t.Fatalf("GetCompletionHistory() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"2024-03-09", "2024-03-10"}, history); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestAddCompletionConcurrent(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := store.AddHabit(ctx, testHabit("h1", "a@example.com")); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.AddCompletion(ctx, "h1", "2024-03-10")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, storage.ErrAlreadyCompleted):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one successful completion, got %d", succeeded)
	}

	history, err := store.GetCompletionHistory(ctx, "h1")
	if err != nil {
		t.Fatalf("GetCompletionHistory() failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected one history entry, got %v", history)
	}
}

func TestAddCompletionDeletedHabit(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := store.AddCompletion(ctx, "missing", "2024-03-10"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("AddCompletion(missing) error = %v, want not found", err)
	}

	if err := store.AddHabit(ctx, testHabit("h1", "a@example.com")); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}
	if err := store.DeleteHabit(ctx, "h1"); err != nil {
		t.Fatalf("DeleteHabit() failed: %v", err)
	}
	if err := store.AddCompletion(ctx, "h1", "2024-03-10"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("AddCompletion(deleted) error = %v, want not found", err)
	}
}

func TestSetCurrentStreak(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if err := store.AddHabit(ctx, testHabit("h1", "a@example.com")); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}
	if err := store.SetCurrentStreak(ctx, "h1", 4); err != nil {
		t.Fatalf("SetCurrentStreak() failed: %v", err)
	}
	got, err := store.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHabit() failed: %v", err)
	}
	if got.CurrentStreak != 4 {
		t.Errorf("CurrentStreak = %d, want 4", got.CurrentStreak)
	}
	if err := store.SetCurrentStreak(ctx, "missing", 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SetCurrentStreak(missing) error = %v, want not found", err)
	}
}

func TestListPublicHabits(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	seed := []struct {
		id, title, category string
		public              bool
	}{
		{"h1", "Morning run", "Fitness", true},
		{"h2", "Meditate", "Morning", true},
		{"h3", "Private journal", "Evening", false},
		{"h4", "Evening RUN", "Fitness", true},
		{"h5", "École walk", "Study", true},
		{"h6", "Hit 100% daily", "Study", true},
		{"h7", "a_b drill", "Study", true},
	}
	for i, s := range seed {
		h := testHabit(s.id, "a@example.com")
		h.Title = s.title
		h.Category = s.category
		h.IsPublic = s.public
		h.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := store.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit(%s) failed: %v", s.id, err)
		}
	}

	tests := []struct {
		name   string
		filter models.HabitFilter
		want   []string
	}{
		{"all public newest first", models.HabitFilter{}, []string{"h7", "h6", "h5", "h4", "h2", "h1"}},
		{"category", models.HabitFilter{Category: "Fitness"}, []string{"h4", "h1"}},
		{"category all", models.HabitFilter{Category: "All"}, []string{"h7", "h6", "h5", "h4", "h2", "h1"}},
		{"search case-insensitive", models.HabitFilter{Search: "run"}, []string{"h4", "h1"}},
		{"search and category", models.HabitFilter{Search: "run", Category: "Morning"}, nil},
		{"limit", models.HabitFilter{Limit: 2}, []string{"h7", "h6"}},
		{"limit applies after search", models.HabitFilter{Search: "r", Limit: 2}, []string{"h7", "h4"}},
		{"private excluded", models.HabitFilter{Search: "journal"}, nil},
		{"percent is literal", models.HabitFilter{Search: "%"}, []string{"h6"}},
		{"percent in term", models.HabitFilter{Search: "100%"}, []string{"h6"}},
		{"underscore is literal", models.HabitFilter{Search: "_"}, []string{"h7"}},
		{"underscore in term", models.HabitFilter{Search: "a_b"}, []string{"h7"}},
		{"accented exact title", models.HabitFilter{Search: "École walk"}, []string{"h5"}},
		{"accented capital folds", models.HabitFilter{Search: "ÉCOLE"}, []string{"h5"}},
		{"accented lower folds", models.HabitFilter{Search: "école"}, []string{"h5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			habits, err := store.ListPublicHabits(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListPublicHabits() failed: %v", err)
			}
			var ids []string
			for _, h := range habits {
				ids = append(ids, h.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListHabitsByOwnerScopesToOwner(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for i, owner := range []string{"a@example.com", "b@example.com", "a@example.com"} {
		h := testHabit(fmt.Sprintf("h%d", i), owner)
		h.CreatedAt = h.CreatedAt.Add(time.Duration(i) * time.Minute)
		if err := store.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit() failed: %v", err)
		}
	}
	if err := store.AddCompletion(ctx, "h2", "2024-03-10"); err != nil {
		t.Fatalf("AddCompletion() failed: %v", err)
	}

	habits, err := store.ListHabitsByOwner(ctx, "a@example.com", false)
	if err != nil {
		t.Fatalf("ListHabitsByOwner() failed: %v", err)
	}
	if len(habits) != 2 || habits[0].ID != "h2" || habits[1].ID != "h0" {
		t.Fatalf("ListHabitsByOwner() = %+v", habits)
	}
	if diff := cmp.Diff([]string{"2024-03-10"}, habits[0].CompletionHistory); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	if habits[1].CompletionHistory == nil || len(habits[1].CompletionHistory) != 0 {
		t.Errorf("expected empty non-nil history, got %#v", habits[1].CompletionHistory)
	}
}
