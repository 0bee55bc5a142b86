package postgres

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
	var deletedAt sql.NullTime

	err := row.Scan(&h.ID, &h.Title, &h.Description, &h.Category, &h.ReminderTime, &h.ImageURL,
		&h.OwnerEmail, &h.OwnerName, &h.IsPublic, &h.CurrentStreak, &h.CreatedAt, &h.UpdatedAt, &deletedAt)
	if err != nil {
		return models.Habit{}, err
	}
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		h.DeletedAt = &t
	}
	return h, nil
}

// AddHabit inserts a habit together with any completion days it carries.
func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	now := timeNow().UTC()
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULL)`,
		habit.ID, habit.Title, habit.Description, habit.Category, habit.ReminderTime, habit.ImageURL,
		habit.OwnerEmail, habit.OwnerName, habit.IsPublic, habit.CurrentStreak,
		habit.CreatedAt, habit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	for _, day := range habit.CompletionHistory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO habit_completions (id, habit_id, day, created_at)
			VALUES ($1, $2, $3::date, $4)
			ON CONFLICT (habit_id, day) DO NOTHING`,
			uuid.NewString(), habit.ID, day, now)
		if err != nil {
			return fmt.Errorf("failed to insert completion %s: %w", day, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE id = $1 AND deleted_at IS NULL`, id)

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
	query := "SELECT " + habitColumns + " FROM habits WHERE owner_email = $1"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	query += " ORDER BY created_at DESC, id"

	return s.queryHabits(ctx, query, ownerEmail)
}

func (s *Store) ListPublicHabits(ctx context.Context, filter models.HabitFilter) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE is_public AND deleted_at IS NULL"
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		p := arg("%" + storage.EscapeLike(search) + "%")
		query += " AND (title ILIKE " + p + ` ESCAPE '\' OR description ILIKE ` + p + ` ESCAPE '\')`
	}
	if filter.Category != "" && filter.Category != constants.CategoryAll {
		query += " AND category = " + arg(filter.Category)
	}
	query += " ORDER BY created_at DESC, id LIMIT " + arg(storage.ClampLimit(filter.Limit))

	return s.queryHabits(ctx, query, args...)
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
			title = $1, description = $2, category = $3, reminder_time = $4, image_url = $5,
			is_public = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL`,
		habit.Title, habit.Description, habit.Category, habit.ReminderTime, habit.ImageURL,
		habit.IsPublic, timeNow().UTC(), habit.ID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE habits SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL", timeNow().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Store) RestoreHabit(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE habits SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL", id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Store) SetCurrentStreak(ctx context.Context, habitID string, streak int) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE habits SET current_streak = $1 WHERE id = $2 AND deleted_at IS NULL", streak, habitID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// AddCompletion relies on UNIQUE(habit_id, day): of concurrent inserts for
// the same day exactly one lands and the rest see ErrAlreadyCompleted.
func (s *Store) AddCompletion(ctx context.Context, habitID, day string) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_completions (id, habit_id, day, created_at)
		SELECT $1, h.id, $3::date, $4
		FROM habits h WHERE h.id = $2 AND h.deleted_at IS NULL
		ON CONFLICT (habit_id, day) DO NOTHING`,
		uuid.NewString(), habitID, day, timeNow().UTC())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Nothing inserted: either the habit is gone or the day is taken.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM habits WHERE id = $1 AND deleted_at IS NULL)", habitID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrAlreadyCompleted
}

func (s *Store) GetCompletionHistory(ctx context.Context, habitID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT to_char(day, 'YYYY-MM-DD') FROM habit_completions WHERE habit_id = $1 ORDER BY day", habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		history = append(history, day)
	}
	return history, rows.Err()
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
