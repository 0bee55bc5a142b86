package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/models"
)

// HabitEditCmd changes display fields only. Completion history and the
// streak cannot be edited.
type HabitEditCmd struct {
	Habit        string  `arg:"" help:"Habit id or title."`
	Title        *string `help:"New title."`
	Description  *string `help:"New markdown description."`
	Category     *string `help:"New category." enum:"Morning,Work,Fitness,Evening,Study"`
	ReminderTime *string `help:"New reminder time (HH:MM)." name:"reminder"`
	ImageURL     *string `help:"New image URL." name:"image-url"`
	Visibility   string  `help:"Show or hide the habit in public listings." enum:",public,private" default:""`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	bg := context.Background()

	h, err := resolve(bg, cl, c.Habit, false)
	if err != nil {
		return err
	}

	in := c.input(h)
	updated, err := cl.Update(bg, h.ID, in)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	ctx.Printf("✓ Updated habit: %s\n", updated.Title)
	return nil
}

// input starts from the current values and overlays the flags that were set.
func (c *HabitEditCmd) input(h models.Habit) models.HabitInput {
	public := h.IsPublic
	in := models.HabitInput{
		Title:        h.Title,
		Description:  h.Description,
		Category:     h.Category,
		ReminderTime: h.ReminderTime,
		ImageURL:     h.ImageURL,
		IsPublic:     &public,
	}
	if c.Title != nil {
		in.Title = *c.Title
	}
	if c.Description != nil {
		in.Description = *c.Description
	}
	if c.Category != nil {
		in.Category = *c.Category
	}
	if c.ReminderTime != nil {
		in.ReminderTime = *c.ReminderTime
	}
	if c.ImageURL != nil {
		in.ImageURL = *c.ImageURL
	}
	switch c.Visibility {
	case "public":
		public = true
	case "private":
		public = false
	}
	return in
}
