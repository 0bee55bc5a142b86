// Package api is the HTTP server that owns the authoritative habit records
// and arbitrates the one-completion-per-day rule.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/habitkeep/internal/clock"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/logger"
	"github.com/julianstephens/habitkeep/internal/storage"
)

// Config wires the server's collaborators.
type Config struct {
	Store        storage.Provider
	Clock        clock.Clock
	Location     *time.Location
	JWTSecret    string
	AllowOrigins string
}

type Server struct {
	store  storage.Provider
	clock  clock.Clock
	loc    *time.Location
	secret string
	app    *fiber.App
}

// New builds the fiber app and registers routes.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("api: JWT secret is required (set " + constants.EnvJWTSecret + ")")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "*"
	}

	s := &Server{
		store:  cfg.Store,
		clock:  cfg.Clock,
		loc:    cfg.Location,
		secret: cfg.JWTSecret,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               constants.AppName,
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	s.app.Use(RequestLogger())
	s.routes()

	return s, nil
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// today is the server's calendar day, the day of record for completions.
func (s *Server) today() string {
	return clock.Today(s.clock, s.loc)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Listening", "addr", addr, "timezone", s.loc.String())
		return s.app.Listen(addr)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownGracePeriod)
		defer cancel()
		logger.Info("Shutting down")
		return s.app.ShutdownWithContext(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// errorHandler renders errors that escape handlers, including fiber's own
// 404 and 405, in the standard envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code == fiber.StatusInternalServerError {
		logger.Error("Unhandled error", "path", c.Path(), "error", err)
		return Error(c, code, CodeInternal, "internal server error")
	}
	return Error(c, code, "", err.Error())
}
