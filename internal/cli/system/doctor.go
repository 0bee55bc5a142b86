package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitkeep/internal/backup"
	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/keyring"
	"github.com/julianstephens/habitkeep/internal/logger"
)

type DoctorCmd struct {
	Server bool `help:"Check the local database used by 'serve'." default:"true" negatable:""`
	API    bool `help:"Check the configured API server." default:"true" negatable:""`
}

type check struct {
	name string
	// warn marks checks that do not fail the run.
	warn bool
	run  func() error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	var checks []check
	checks = append(checks, check{name: "Config/timezone", run: func() error { return checkTimezone(ctx) }})
	if cmd.Server {
		dbReachable := false
		checks = append(checks,
			check{name: "Database reachable", run: func() error {
				_, err := ctx.LoadStore()
				dbReachable = err == nil
				return err
			}},
			check{name: "Migrations complete", run: func() error {
				if !dbReachable {
					return errSkipped
				}
				return checkMigrations(ctx)
			}},
			check{name: "Backups present", warn: true, run: func() error { return checkBackups(ctx) }},
		)
	}
	if cmd.API {
		checks = append(checks, check{name: "API reachable", run: func() error { return checkAPI(ctx) }})
	}
	checks = append(checks, check{name: "OS keyring", warn: true, run: func() error {
		if !keyring.IsAvailable() {
			return keyring.ErrKeyringUnavailable
		}
		return nil
	}})

	failed := false
	for _, c := range checks {
		err := c.run()
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.Is(err, errSkipped):
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
		case c.warn:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			failed = true
		}
	}

	ctx.Println()
	if f := logger.File(); f != "" {
		ctx.Printf("Log file: %s\n", f)
	}
	if failed {
		return errors.New("diagnostics failed")
	}
	ctx.Println("All checks passed.")
	return nil
}

var errSkipped = errors.New("skipped")

func checkTimezone(ctx *cli.Context) error {
	if _, err := ctx.Location(); err != nil {
		return err
	}
	if now := time.Now(); now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkMigrations(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	m, ok := store.(migrator)
	if !ok {
		return nil
	}
	status, err := m.MigrationStatus(context.Background())
	if err != nil {
		return err
	}
	if !status.UpToDate() {
		return fmt.Errorf("%d pending migration(s); run '%s migrate'", len(status.Pending), constants.AppName)
	}
	return nil
}

func checkBackups(ctx *cli.Context) error {
	path, err := ctx.SQLitePath()
	if err != nil {
		return err
	}
	backups, err := backup.NewManager(path).ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found; run '%s backup create'", constants.AppName)
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

// checkAPI also compares calendars: the server's day is the day of record,
// so a client on a different day will see confusing results.
func checkAPI(ctx *cli.Context) error {
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := c.Health(reqCtx)
	if err != nil {
		return fmt.Errorf("%s: %w", ctx.Config.APIURL, err)
	}
	if today := c.Today(); health.Today != today {
		return fmt.Errorf("server day %s (%s) differs from local day %s (%s)",
			health.Today, health.Timezone, today, ctx.Config.Timezone)
	}
	return nil
}
