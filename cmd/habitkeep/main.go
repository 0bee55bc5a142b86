package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/cli/backups"
	"github.com/julianstephens/habitkeep/internal/cli/habits"
	"github.com/julianstephens/habitkeep/internal/cli/system"
	"github.com/julianstephens/habitkeep/internal/config"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/errors"
	"github.com/julianstephens/habitkeep/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path" default:"${config_path}"`
	Database string `help:"Server database: SQLite path, PostgreSQL connection string without password, or 'keyring'. Overrides config."`
	APIURL   string `help:"API base URL. Overrides config." name:"api-url"`
	Token    string `help:"API token. Overrides the token stored by login." env:"HABITKEEP_TOKEN"`
	Debug    bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitkeep storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Serve   system.ServeCmd   `cmd:"" help:"Run the REST API server."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Login   system.LoginCmd   `cmd:"" help:"Store an API token in the OS keyring."`
	Logout  system.LogoutCmd  `cmd:"" help:"Remove the stored API token."`
	Mint    system.TokenCmd   `cmd:"" name:"token" help:"Mint an API token with the server secret."`
	Notify  system.NotifyCmd  `cmd:"" help:"Send a test message to the companion tray app."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage SQLite database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string (password masked)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	Habit habits.HabitCmd `cmd:"" help:"Manage and complete habits."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily habit tracker with streaks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": config.DefaultPath(),
		},
	)

	// The config comes first so a log level from .env or config.toml applies.
	cfg, cfgErr := config.Load(CLI.Config)
	level := ""
	if cfg != nil {
		level = cfg.LogLevel
	}

	serving := strings.HasPrefix(kctx.Command(), "serve")
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: filepath.Dir(config.ExpandPath(CLI.Config)),
		Stderr:    serving,
		Level:     level,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	if cfgErr != nil {
		errors.Fatal(cfgErr)
	}

	if CLI.Database != "" {
		cfg.Server.Database = CLI.Database
	}
	if CLI.APIURL != "" {
		cfg.APIURL = CLI.APIURL
	}

	appCtx := &cli.Context{
		Config:     cfg,
		ConfigPath: config.ExpandPath(CLI.Config),
		Token:      CLI.Token,
	}

	err := kctx.Run(appCtx)
	if closeErr := appCtx.Close(); closeErr != nil {
		logger.Warn("Failed to close database", "error", closeErr)
	}
	errors.Fatal(err)
}
