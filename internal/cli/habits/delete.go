package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitkeep/internal/cli"
)

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or title."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	bg := context.Background()

	h, err := resolve(bg, cl, c.Habit, false)
	if err != nil {
		return err
	}
	if err := cl.Delete(bg, h.ID); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	ctx.Printf("Deleted habit: %s (restore with 'habit restore %s')\n", h.Title, h.ID)
	return nil
}

type HabitRestoreCmd struct {
	Habit string `arg:"" help:"Habit id or title."`
}

func (c *HabitRestoreCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	bg := context.Background()

	h, err := resolve(bg, cl, c.Habit, true)
	if err != nil {
		return err
	}
	if h.DeletedAt == nil {
		return fmt.Errorf("habit %q is not deleted", h.Title)
	}
	restored, err := cl.Restore(bg, h.ID)
	if err != nil {
		return fmt.Errorf("failed to restore habit: %w", err)
	}
	ctx.Printf("✓ Restored habit: %s\n", restored.Title)
	return nil
}
