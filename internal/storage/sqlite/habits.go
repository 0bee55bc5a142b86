package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/storage"
)

const habitColumns = `id, title, description, category, reminder_time, image_url,
	owner_email, owner_name, is_public, current_streak, created_at, updated_at, deleted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(&h.ID, &h.Title, &h.Description, &h.Category, &h.ReminderTime, &h.ImageURL,
		&h.OwnerEmail, &h.OwnerName, &h.IsPublic, &h.CurrentStreak, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return models.Habit{}, err
	}

	if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Habit{}, err
	}
	if h.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.Habit{}, err
	}
	if deletedAt.Valid {
		t, err := parseTime("deleted_at", deletedAt.String)
		if err != nil {
			return models.Habit{}, err
		}
		h.DeletedAt = &t
	}
	return h, nil
}

// AddHabit inserts a habit together with any completion days it carries.
func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	now := timeNow()
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = now
	}
	if habit.UpdatedAt.IsZero() {
		habit.UpdatedAt = habit.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		habit.ID, habit.Title, habit.Description, habit.Category, habit.ReminderTime, habit.ImageURL,
		habit.OwnerEmail, habit.OwnerName, habit.IsPublic, habit.CurrentStreak,
		formatTime(habit.CreatedAt), formatTime(habit.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	for _, day := range habit.CompletionHistory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO habit_completions (id, habit_id, day, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(habit_id, day) DO NOTHING`,
			uuid.NewString(), habit.ID, day, formatTime(now))
		if err != nil {
			return fmt.Errorf("failed to insert completion %s: %w", day, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE id = ? AND deleted_at IS NULL`, id)

	h, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, storage.ErrNotFound
		}
		return models.Habit{}, err
	}

	if h.CompletionHistory, err = s.GetCompletionHistory(ctx, h.ID); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) ListHabitsByOwner(ctx context.Context, ownerEmail string, includeDeleted bool) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE owner_email = ?"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	query += " ORDER BY created_at DESC, id"

	return s.queryHabits(ctx, query, ownerEmail)
}

// ListPublicHabits returns public habits, newest first. Search matches title
// or description case-insensitively as a literal substring; "All" or empty
// category means any. SQLite's LOWER and LIKE only fold ASCII, so the search
// is applied in Go and the limit after it.
func (s *Store) ListPublicHabits(ctx context.Context, filter models.HabitFilter) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE is_public = 1 AND deleted_at IS NULL"
	var args []any

	if filter.Category != "" && filter.Category != constants.CategoryAll {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	query += " ORDER BY created_at DESC, id"

	limit := storage.ClampLimit(filter.Limit)
	search := strings.TrimSpace(filter.Search)
	if search == "" {
		query += " LIMIT ?"
		args = append(args, limit)
		return s.queryHabits(ctx, query, args...)
	}

	habits, err := s.queryHabits(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var matched []models.Habit
	for _, h := range habits {
		if storage.MatchesSearch(h, search) {
			matched = append(matched, h)
			if len(matched) == limit {
				break
			}
		}
	}
	return matched, nil
}

func (s *Store) queryHabits(ctx context.Context, query string, args ...any) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range habits {
		if habits[i].CompletionHistory, err = s.GetCompletionHistory(ctx, habits[i].ID); err != nil {
			return nil, err
		}
	}
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET
			title = ?, description = ?, category = ?, reminder_time = ?, image_url = ?,
			is_public = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		habit.Title, habit.Description, habit.Category, habit.ReminderTime, habit.ImageURL,
		habit.IsPublic, formatTime(timeNow()), habit.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(timeNow()), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Store) RestoreHabit(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Store) SetCurrentStreak(ctx context.Context, habitID string, streak int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET current_streak = ? WHERE id = ? AND deleted_at IS NULL`, streak, habitID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}
