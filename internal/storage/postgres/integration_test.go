package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/storage"
)

// Set POSTGRES_TEST_URL to run, e.g.
// POSTGRES_TEST_URL="postgres://user@localhost:5432/testdb?sslmode=disable"
func setupIntegrationStore(t *testing.T) *Store {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIntegrationCompletionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	id := uuid.NewString()
	h := models.Habit{
		ID:         id,
		Title:      "Stretch",
		Category:   "Morning",
		OwnerEmail: "pg@example.com",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := store.AddHabit(ctx, h); err != nil {
		t.Fatalf("AddHabit() failed: %v", err)
	}

	if err := store.AddCompletion(ctx, id, "2024-03-10"); err != nil {
		t.Fatalf("AddCompletion() failed: %v", err)
	}
	if err := store.AddCompletion(ctx, id, "2024-03-10"); !errors.Is(err, storage.ErrAlreadyCompleted) {
		t.Errorf("second AddCompletion() error = %v, want already completed", err)
	}

	got, err := store.GetHabit(ctx, id)
	if err != nil {
		t.Fatalf("GetHabit() failed: %v", err)
	}
	if len(got.CompletionHistory) != 1 || got.CompletionHistory[0] != "2024-03-10" {
		t.Errorf("CompletionHistory = %v", got.CompletionHistory)
	}

	if err := store.DeleteHabit(ctx, id); err != nil {
		t.Fatalf("DeleteHabit() failed: %v", err)
	}
	if err := store.AddCompletion(ctx, id, "2024-03-11"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("AddCompletion(deleted) error = %v, want not found", err)
	}
}

func TestIntegrationPublicSearchIsLiteral(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	// A per-run marker keeps other rows in a shared database out of the results.
	marker := uuid.NewString()[:8]
	titles := map[string]string{
		"percent":    marker + " 100% done",
		"underscore": marker + " a_b drill",
		"accent":     marker + " École walk",
		"plain":      marker + " 1000 steps",
	}
	ids := map[string]string{}
	for key, title := range titles {
		id := uuid.NewString()
		ids[key] = id
		h := models.Habit{
			ID:         id,
			Title:      title,
			Category:   "Study",
			OwnerEmail: "pg@example.com",
			IsPublic:   true,
			CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		}
		if err := store.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit(%s) failed: %v", key, err)
		}
	}

	tests := []struct {
		search string
		want   string
	}{
		{marker + " 100%", "percent"},
		{marker + " a_b", "underscore"},
		{marker + " ÉCOLE", "accent"},
		{marker + " école walk", "accent"},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			habits, err := store.ListPublicHabits(ctx, models.HabitFilter{Search: tt.search})
			if err != nil {
				t.Fatalf("ListPublicHabits() failed: %v", err)
			}
			if len(habits) != 1 || habits[0].ID != ids[tt.want] {
				var got []string
				for _, h := range habits {
					got = append(got, h.Title)
				}
				t.Errorf("search %q = %v, want only %q", tt.search, got, titles[tt.want])
			}
		})
	}
}
