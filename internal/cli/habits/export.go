package habits

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/models"
)

type HabitExportCmd struct {
	Format  string `help:"Output format." enum:"json,yaml" default:"json"`
	Output  string `short:"o" help:"Write to a file instead of stdout." type:"path"`
	Deleted bool   `help:"Include deleted habits."`
}

func (c *HabitExportCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	habits, err := cl.ListMine(context.Background(), c.Deleted)
	if err != nil {
		return err
	}

	if c.Output == "" {
		return writeExport(ctx.Out(), c.Format, habits)
	}

	f, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := writeExport(f, c.Format, habits); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	ctx.Printf("✓ Exported %d habit(s) to %s\n", len(habits), c.Output)
	return nil
}

func writeExport(w io.Writer, format string, habits []models.Habit) error {
	if habits == nil {
		habits = []models.Habit{}
	}
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(habits); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(habits)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
