package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/julianstephens/habitkeep/internal/clock"
	"github.com/julianstephens/habitkeep/internal/constants"
)

// Config is the persistent configuration stored in config.toml.
type Config struct {
	// APIURL is the base URL the client role talks to.
	APIURL string `toml:"api_url"`
	// Timezone is the IANA zone that defines "today" for completions and streaks.
	Timezone      string              `toml:"timezone"`
	// LogLevel overrides the derived log level: debug, info, warn or error.
	LogLevel      string              `toml:"log_level,omitempty"`
	Server        ServerConfig        `toml:"server"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// ServerConfig holds settings for `habitkeep serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	Database     string `toml:"database"` // sqlite path or postgres:// URL without password
	AllowOrigins string `toml:"allow_origins"`
	// JWTSecret is never written to disk; it comes from the environment.
	JWTSecret string `toml:"-"`
}

// NotificationsConfig controls where completion messages go.
type NotificationsConfig struct {
	// Tray sends completion messages to a companion tray app, falling back to
	// the terminal when none is running.
	Tray bool `toml:"tray"`
	// TrayApp is the companion's executable name prefix.
	TrayApp string `toml:"tray_app"`
	// TrayDir holds the companion's lockfile; empty means its config directory.
	TrayDir string `toml:"tray_dir"`
}

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		APIURL:   constants.DefaultAPIURL,
		Timezone: constants.DefaultTimezone,
		Server: ServerConfig{
			Addr:         constants.DefaultListenAddr,
			Database:     constants.DefaultDBPath,
			AllowOrigins: "*",
		},
		Notifications: NotificationsConfig{
			TrayApp: constants.DefaultTrayApp,
		},
	}
}

// Read decodes a Config from r on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads the config file at path (a missing file yields defaults), loads
// any .env files found next to it or in the working directory, then applies
// HABITKEEP_* environment overrides.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	cfg := Default()
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		cfg, err = Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := LoadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env"); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg *Config) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	return Write(f, cfg)
}

// LoadDotEnv loads each existing file into the process environment. Variables
// already set are left alone; missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if v, ok := lookupEnv(constants.EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookupEnv(constants.EnvTimezone); ok && v != "" {
		c.Timezone = v
	}
	if v, ok := lookupEnv(constants.EnvListenAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookupEnv(constants.EnvDBConnection); ok && v != "" {
		c.Server.Database = v
	}
	if v, ok := lookupEnv(constants.EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookupEnv(constants.EnvJWTSecret); ok {
		c.Server.JWTSecret = v
	}
}

// Validate checks fields that would otherwise fail later with a worse message.
func (c *Config) Validate() error {
	if _, err := clock.LoadLocation(c.Timezone); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
		}
	}
	if c.APIURL != "" && !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("invalid api_url %q: must start with http:// or https://", c.APIURL)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return clock.LoadLocation(c.Timezone)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// DefaultPath is the config file location used when --config is not given.
func DefaultPath() string {
	return filepath.Join(ExpandPath(constants.DefaultConfigDir), constants.DefaultConfigFile)
}
