package sqlite

import (
	"context"

	"github.com/google/uuid"

	"github.com/julianstephens/habitkeep/internal/storage"
)

// AddCompletion inserts the (habit, day) row. The unique constraint makes
// concurrent callers race safely: exactly one insert lands, the rest see
// ErrAlreadyCompleted.
func (s *Store) AddCompletion(ctx context.Context, habitID, day string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM habits WHERE id = ? AND deleted_at IS NULL", habitID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return storage.ErrNotFound
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_completions (id, habit_id, day, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO NOTHING`,
		uuid.NewString(), habitID, day, formatTime(timeNow()))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return storage.ErrAlreadyCompleted
	}
	return nil
}

// GetCompletionHistory returns the habit's completion days in ascending order.
func (s *Store) GetCompletionHistory(ctx context.Context, habitID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT day FROM habit_completions WHERE habit_id = ? ORDER BY day", habitID)
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
