package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/migration"
)

// migrator is implemented by both SQL backends.
type migrator interface {
	Migrate(ctx context.Context, logFn func(string)) (int, error)
	MigrationStatus(ctx context.Context) (migration.Status, error)
}

type MigrateCmd struct {
	Status bool `help:"Show the schema version and pending migrations without applying them."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	store, err := ctx.LoadStore()
	if err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	m, ok := store.(migrator)
	if !ok {
		return fmt.Errorf("storage backend does not support migrations")
	}
	bg := context.Background()

	if c.Status {
		status, err := m.MigrationStatus(bg)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		ctx.Printf("Current schema version: %d\n", status.Current)
		ctx.Printf("Latest schema version:  %d\n", status.Latest)
		if status.UpToDate() {
			ctx.Println("Database is up to date.")
			return nil
		}
		ctx.Println("Pending migrations:")
		for _, p := range status.Pending {
			ctx.Printf("  %03d  %s\n", p.Version, p.Name)
		}
		return nil
	}

	ctx.PerformAutomaticBackup()
	count, err := m.Migrate(bg, func(msg string) { ctx.Println(msg) })
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
