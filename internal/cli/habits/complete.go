package habits

import (
	"context"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/errors"
)

type HabitCompleteCmd struct {
	Habit string `arg:"" help:"Habit id or title."`
}

func (c *HabitCompleteCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	bg := context.Background()

	h, err := resolve(bg, cl, c.Habit, false)
	if err != nil {
		return err
	}

	svc, err := ctx.Completion(nil)
	if err != nil {
		return err
	}
	// The notifier has already told the user what happened.
	if _, err := svc.Complete(bg, h); err != nil {
		return errors.Reported(err)
	}
	return nil
}
