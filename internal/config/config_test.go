package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/habitkeep/internal/constants"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = orig })
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	withEnv(t, nil)

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.APIURL != constants.DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, constants.DefaultAPIURL)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.Timezone)
	}
	if cfg.Server.Addr != constants.DefaultListenAddr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	withEnv(t, nil)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.APIURL = "https://habits.example.com"
	cfg.Timezone = "America/New_York"
	cfg.Notifications.Tray = true
	cfg.Server.JWTSecret = "should-not-persist"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if strings.Contains(string(raw), "should-not-persist") {
		t.Error("JWT secret was written to the config file")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.APIURL != cfg.APIURL || loaded.Timezone != cfg.Timezone || !loaded.Notifications.Tray {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
	if loaded.Server.JWTSecret != "" {
		t.Errorf("JWTSecret = %q, want empty", loaded.Server.JWTSecret)
	}
}

func TestReadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Read(strings.NewReader(`timezone = "Europe/Berlin"`))
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.APIURL != constants.DefaultAPIURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
}

func TestReadInvalid(t *testing.T) {
	if _, err := Read(strings.NewReader("timezone = ")); err == nil {
		t.Error("Read() expected error for malformed TOML")
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Default()); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if !strings.Contains(buf.String(), `api_url = "http://localhost:3000"`) {
		t.Errorf("Write() output missing api_url:\n%s", buf.String())
	}
}

func TestEnvOverrides(t *testing.T) {
	withEnv(t, map[string]string{
		constants.EnvAPIURL:       "https://api.example.com",
		constants.EnvTimezone:     "Asia/Tokyo",
		constants.EnvListenAddr:   ":8080",
		constants.EnvDBConnection: "postgres://habits@db/habitkeep",
		constants.EnvJWTSecret:    "s3cret",
	})

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"api url", cfg.APIURL, "https://api.example.com"},
		{"timezone", cfg.Timezone, "Asia/Tokyo"},
		{"addr", cfg.Server.Addr, ":8080"},
		{"database", cfg.Server.Database, "postgres://habits@db/habitkeep"},
		{"jwt secret", cfg.Server.JWTSecret, "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"bad api url", func(c *Config) { c.APIURL = "localhost:3000" }, true},
		{"local timezone", func(c *Config) { c.Timezone = "Local" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HABITKEEP_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("HABITKEEP_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() failed: %v", err)
	}
	if got := os.Getenv("HABITKEEP_TEST_DOTENV"); got != "loaded" {
		t.Errorf("HABITKEEP_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/x/config.toml"); got != filepath.Join(home, "x/config.toml") {
		t.Errorf("ExpandPath() = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath() = %q", got)
	}
}

func TestLoadReadsLogLevelFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(constants.EnvLogLevel+"=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// t.Setenv restores the variable after godotenv sets it.
	t.Setenv(constants.EnvLogLevel, "")
	os.Unsetenv(constants.EnvLogLevel)

	cfg, err := Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	withEnv(t, map[string]string{constants.EnvLogLevel: "loud"})
	if _, err := Load(filepath.Join(t.TempDir(), "config.toml")); err == nil {
		t.Fatal("Load() should reject an unknown log level")
	}
}
