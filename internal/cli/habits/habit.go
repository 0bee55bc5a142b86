package habits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/client"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/storage"
	"github.com/julianstephens/habitkeep/internal/streak"
)

type HabitCmd struct {
	Add      HabitAddCmd      `cmd:"" help:"Add a new habit."`
	List     HabitListCmd     `cmd:"" help:"List your habits."`
	Show     HabitShowCmd     `cmd:"" help:"Show a habit with its streak and recent progress."`
	Complete HabitCompleteCmd `cmd:"" help:"Mark a habit complete for today."`
	Edit     HabitEditCmd     `cmd:"" help:"Edit a habit."`
	Delete   HabitDeleteCmd   `cmd:"" help:"Delete a habit (soft delete)."`
	Restore  HabitRestoreCmd  `cmd:"" help:"Restore a deleted habit."`
	Browse   HabitBrowseCmd   `cmd:"" help:"Browse public habits."`
	Featured HabitFeaturedCmd `cmd:"" help:"Show featured public habits."`
	Export   HabitExportCmd   `cmd:"" help:"Export your habits as JSON or YAML."`
}

// resolve finds one of the caller's habits by id or case-insensitive title.
func resolve(ctx context.Context, c *client.Client, ref string, includeDeleted bool) (models.Habit, error) {
	mine, err := c.ListMine(ctx, includeDeleted)
	if err != nil {
		return models.Habit{}, err
	}

	var matches []models.Habit
	for _, h := range mine {
		if h.ID == ref {
			return h, nil
		}
		if strings.EqualFold(h.Title, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("%q: %w", ref, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%d habits are titled %q, use the id instead", len(matches), ref)
	}
}

// resolveAny also accepts the id of someone else's public habit.
func resolveAny(ctx context.Context, c *client.Client, ref string) (models.Habit, error) {
	if _, _, err := c.Identity(); err == nil {
		h, err := resolve(ctx, c, ref, false)
		if err == nil || !errors.Is(err, storage.ErrNotFound) {
			return h, err
		}
	}
	return c.Get(ctx, ref)
}

func statusMark(h models.Habit, today string) string {
	switch {
	case h.DeletedAt != nil:
		return "[DELETED]"
	case streak.IsCompletedToday(h.CompletionHistory, today):
		return "[x]"
	default:
		return "[ ]"
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func printHabitLine(ctx *cli.Context, h models.Habit, today string, showOwner bool) {
	owner := ""
	if showOwner && h.OwnerName != "" {
		owner = " by " + h.OwnerName
	}
	ctx.Printf("%s %s (%s)%s - streak %s  [%s]\n",
		statusMark(h, today), h.Title, h.Category, owner, plural(h.CurrentStreak, "day"), h.ID)
}
