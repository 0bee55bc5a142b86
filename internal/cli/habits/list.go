package habits

import (
	"context"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/streak"
)

type HabitListCmd struct {
	Deleted bool `help:"Include deleted habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	habits, err := cl.ListMine(context.Background(), c.Deleted)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	today := cl.Today()
	ctx.Printf("Habits for %s:\n\n", today)
	done, active := 0, 0
	for _, h := range habits {
		printHabitLine(ctx, h, today, false)
		if h.DeletedAt == nil {
			active++
			if streak.IsCompletedToday(h.CompletionHistory, today) {
				done++
			}
		}
	}
	ctx.Printf("\nCompleted today: %d/%d\n", done, active)
	return nil
}

type HabitBrowseCmd struct {
	Search   string `help:"Case-insensitive search over title and description."`
	Category string `help:"Category filter." enum:"All,Morning,Work,Fitness,Evening,Study" default:"All"`
	Limit    int    `help:"Maximum number of habits." default:"20"`
}

func (c *HabitBrowseCmd) Run(ctx *cli.Context) error {
	return listPublic(ctx, models.HabitFilter{Search: c.Search, Category: c.Category, Limit: c.Limit})
}

type HabitFeaturedCmd struct{}

func (c *HabitFeaturedCmd) Run(ctx *cli.Context) error {
	return listPublic(ctx, models.HabitFilter{Limit: constants.DefaultFeaturedLimit})
}

func listPublic(ctx *cli.Context, filter models.HabitFilter) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	habits, err := cl.ListPublic(context.Background(), filter)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No public habits found.")
		return nil
	}
	today := cl.Today()
	for _, h := range habits {
		printHabitLine(ctx, h, today, true)
	}
	return nil
}
