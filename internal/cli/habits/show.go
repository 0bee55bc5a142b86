package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/streak"
)

// renderMarkdown is a seam for tests; the real renderer picks a style from
// the terminal.
var renderMarkdown = func(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit id or title."`
	Days  int    `help:"Days in the progress grid (at most 366)." default:"30"`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	h, err := resolveAny(context.Background(), cl, c.Habit)
	if err != nil {
		return err
	}

	out, err := renderMarkdown(detailMarkdown(h, cl.Today(), c.Days))
	if err != nil {
		return fmt.Errorf("failed to render habit: %w", err)
	}
	ctx.Printf("%s", out)
	return nil
}

// detailMarkdown lays out a habit's detail view.
func detailMarkdown(h models.Habit, today string, days int) string {
	if days <= 0 {
		days = constants.ProgressWindowDays
	}
	if days > constants.MaxProgressDays {
		days = constants.MaxProgressDays
	}
	tier := streak.TierFor(h.CurrentStreak)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", h.Title)
	fmt.Fprintf(&b, "*%s*", h.Category)
	if h.ReminderTime != "" {
		fmt.Fprintf(&b, " · reminder at %s", h.ReminderTime)
	}
	if h.OwnerName != "" {
		fmt.Fprintf(&b, " · by %s", h.OwnerName)
	}
	b.WriteString("\n\n")

	if h.Description != "" {
		b.WriteString(h.Description)
		b.WriteString("\n\n")
	}

	b.WriteString("## Streak\n\n")
	fmt.Fprintf(&b, "- **Current:** %s\n", plural(h.CurrentStreak, "day"))
	fmt.Fprintf(&b, "- **Longest:** %s\n", plural(streak.Longest(h.CompletionHistory), "day"))
	fmt.Fprintf(&b, "- **%s** %s\n", tier.Label, tier.Message)
	if streak.IsCompletedToday(h.CompletionHistory, today) {
		b.WriteString("- Completed today ✓\n")
	} else {
		b.WriteString("- Not completed today\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Last %d days (%d%%)\n\n", days, streak.CompletionRate(h.CompletionHistory, today, days))
	b.WriteString("```\n")
	b.WriteString(progressGrid(streak.Progress(h.CompletionHistory, today, days)))
	b.WriteString("```\n")
	return b.String()
}

// progressGrid draws one cell per day, seven to a row, oldest first.
func progressGrid(grid []streak.DayStatus) string {
	var b strings.Builder
	for i, d := range grid {
		if d.Completed {
			b.WriteString("■")
		} else {
			b.WriteString("□")
		}
		if (i+1)%7 == 0 || i == len(grid)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}
