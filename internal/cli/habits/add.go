package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/models"
)

type HabitAddCmd struct {
	Title        string `arg:"" help:"Habit title."`
	Description  string `help:"Markdown description."`
	Category     string `help:"Category." enum:"Morning,Work,Fitness,Evening,Study" default:"Morning"`
	ReminderTime string `help:"Reminder time (HH:MM)." name:"reminder"`
	ImageURL     string `help:"Image URL." name:"image-url"`
	Private      bool   `help:"Hide the habit from public listings."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}

	public := !c.Private
	h, err := cl.Create(context.Background(), models.HabitInput{
		Title:        c.Title,
		Description:  c.Description,
		Category:     c.Category,
		ReminderTime: c.ReminderTime,
		ImageURL:     c.ImageURL,
		IsPublic:     &public,
	})
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}

	ctx.Printf("✓ Added habit: %s (%s)\n", h.Title, h.ID)
	return nil
}
