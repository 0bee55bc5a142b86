package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitkeep/internal/api"
	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/logger"
)

type ServeCmd struct {
	Addr         string `help:"Listen address (overrides config)."`
	AllowOrigins string `help:"Comma-separated CORS origins (overrides config)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config.Server
	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if c.AllowOrigins != "" {
		cfg.AllowOrigins = c.AllowOrigins
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("%s must be set to serve the API", constants.EnvJWTSecret)
	}

	store, err := ctx.Store()
	if err != nil {
		return err
	}
	// Init is idempotent: it creates the database if needed and applies
	// pending migrations.
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to prepare database: %w", err)
	}
	ctx.PerformAutomaticBackup()

	loc, err := ctx.Location()
	if err != nil {
		return err
	}

	srv, err := api.New(api.Config{
		Store:        store,
		Location:     loc,
		JWTSecret:    cfg.JWTSecret,
		AllowOrigins: cfg.AllowOrigins,
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting API server", "database", store.GetConfigPath(), "version", constants.Version)
	if err := srv.Run(sigCtx, cfg.Addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
