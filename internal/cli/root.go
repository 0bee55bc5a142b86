package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/habitkeep/internal/backup"
	"github.com/julianstephens/habitkeep/internal/client"
	"github.com/julianstephens/habitkeep/internal/clock"
	"github.com/julianstephens/habitkeep/internal/completion"
	"github.com/julianstephens/habitkeep/internal/config"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/keyring"
	"github.com/julianstephens/habitkeep/internal/logger"
	"github.com/julianstephens/habitkeep/internal/notifier"
	"github.com/julianstephens/habitkeep/internal/storage"
	"github.com/julianstephens/habitkeep/internal/storage/postgres"
	"github.com/julianstephens/habitkeep/internal/storage/sqlite"
)

// Context is shared by every command. The store and the API client are built
// on first use so commands only pay for the role they play.
type Context struct {
	Config     *config.Config
	ConfigPath string
	// Token overrides the API token stored in the keyring.
	Token  string
	Clock  clock.Clock
	Stdout io.Writer

	store  storage.Provider
	client *client.Client
}

// Out is where commands write their output.
func (c *Context) Out() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *Context) clock() clock.Clock {
	if c.Clock == nil {
		return clock.RealClock{}
	}
	return c.Clock
}

// Location is the configured calendar timezone.
func (c *Context) Location() (*time.Location, error) {
	return c.Config.Location()
}

// Today is the local calendar day in the configured timezone.
func (c *Context) Today() (string, error) {
	loc, err := c.Location()
	if err != nil {
		return "", err
	}
	return clock.Today(c.clock(), loc), nil
}

// OpenStore picks the backend for database: a postgres:// URL or key=value
// DSN selects PostgreSQL, "keyring" reads the connection string from the OS
// keyring, anything else is a SQLite file path.
func OpenStore(database string) (storage.Provider, error) {
	switch {
	case database == constants.DatabaseKeyring:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("no connection string in keyring, store one with '%s keyring set'", constants.AppName)
			}
			return nil, err
		}
		// The keyring is allowed to hold a password.
		return postgres.New(connStr), nil
	case postgres.IsConnString(database) || strings.Contains(database, "host="):
		if err := postgres.ValidateConnString(database); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w: use the OS keyring (database = %q), %s or .pgpass",
					err, constants.DatabaseKeyring, constants.EnvDBConnection)
			}
			return nil, err
		}
		return postgres.New(database), nil
	default:
		return sqlite.NewStore(config.ExpandPath(database)), nil
	}
}

// Store returns the configured store without loading it.
func (c *Context) Store() (storage.Provider, error) {
	if c.store != nil {
		return c.store, nil
	}
	store, err := OpenStore(c.Config.Server.Database)
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

// LoadStore returns the configured store, loaded and version-checked.
func (c *Context) LoadStore() (storage.Provider, error) {
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// SQLitePath returns the database file for backup commands.
func (c *Context) SQLitePath() (string, error) {
	store, err := c.Store()
	if err != nil {
		return "", err
	}
	if _, ok := store.(*sqlite.Store); !ok {
		return "", errors.New("backups are only supported for SQLite storage; use pg_dump for PostgreSQL")
	}
	return store.GetConfigPath(), nil
}

// PerformAutomaticBackup creates a backup and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	path, err := c.SQLitePath()
	if err != nil {
		return
	}
	if _, err := backup.NewManager(path).CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveToken returns the API token from the flag/environment or keyring.
// A missing token is not an error; authenticated calls fail later.
func (c *Context) ResolveToken() string {
	if c.Token != "" {
		return c.Token
	}
	token, err := keyring.GetToken()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring token lookup failed", "error", err)
		}
		return ""
	}
	return token
}

// Client returns the API client for the configured server.
func (c *Context) Client() (*client.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	cl, err := client.New(client.Options{
		BaseURL:  c.Config.APIURL,
		Token:    c.ResolveToken(),
		Clock:    c.clock(),
		Location: loc,
	})
	if err != nil {
		return nil, err
	}
	c.client = cl
	return cl, nil
}

// Tray returns the companion tray notifier described by the config.
func (c *Context) Tray(fallback completion.Notifier) *notifier.Tray {
	t := notifier.NewTray(fallback)
	if app := c.Config.Notifications.TrayApp; app != "" {
		t.App = app
	}
	t.Dir = config.ExpandPath(c.Config.Notifications.TrayDir)
	return t
}

// Notifier returns where completion outcomes are reported.
func (c *Context) Notifier() completion.Notifier {
	console := notifier.NewConsole(c.Out())
	if c.Config.Notifications.Tray {
		return c.Tray(console)
	}
	return console
}

// Completion wires the completion flow to the API client.
func (c *Context) Completion(n completion.Notifier) (*completion.Service, error) {
	cl, err := c.Client()
	if err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	if n == nil {
		n = c.Notifier()
	}
	return &completion.Service{
		Persister: cl,
		Notifier:  n,
		Clock:     c.clock(),
		Location:  loc,
	}, nil
}

// Close releases the store if one was opened.
func (c *Context) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// Printf writes to the command's output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out(), args...)
}
