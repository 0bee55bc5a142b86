package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitkeep/internal/completion"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/logger"
	"github.com/julianstephens/habitkeep/internal/models"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

const (
	secretHeader = "X-Habitkeep-Secret"
	trayTimeout  = 2 * time.Second
)

var ErrTrayNotRunning = errors.New("tray app is not running")

type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

// Tray delivers notifications to a companion tray app over its local
// webhook. Any app can act as the companion if it:
//
//   - writes "port|pid|secret" to the lockfile in Dir (or in its own config
//     directory, see GetTrayAppConfigDir),
//   - runs as an executable whose name starts with App,
//   - accepts POST {"text", "duration_ms"} on 127.0.0.1:port with the secret
//     in the X-Habitkeep-Secret header and answers 200.
//
// When the tray is unreachable the notification goes to Fallback instead.
type Tray struct {
	Fallback completion.Notifier
	// App is the companion's executable name prefix.
	App string
	// Dir overrides where the lockfile is looked up.
	Dir    string
	client *http.Client
	host   string
}

func NewTray(fallback completion.Notifier) *Tray {
	return &Tray{
		Fallback: fallback,
		App:      constants.DefaultTrayApp,
		client:   &http.Client{Timeout: trayTimeout},
		host:     "127.0.0.1",
	}
}

func (t *Tray) Success(h models.Habit, streak int) {
	if t.deliver(successText(h, streak)) != nil && t.Fallback != nil {
		t.Fallback.Success(h, streak)
	}
}

func (t *Tray) AlreadyCompleted(h models.Habit) {
	if t.deliver(alreadyText(h)) != nil && t.Fallback != nil {
		t.Fallback.AlreadyCompleted(h)
	}
}

func (t *Tray) Failure(h models.Habit, err error) {
	if t.deliver(failureText(h, err)) != nil && t.Fallback != nil {
		t.Fallback.Failure(h, err)
	}
}

func (t *Tray) deliver(text string) error {
	if err := t.Notify(text); err != nil {
		logger.Debug("Tray notification not delivered", "error", err)
		return err
	}
	return nil
}

// Notify sends text to the running tray app.
func (t *Tray) Notify(text string) error {
	dir := t.Dir
	if dir == "" {
		var err error
		if dir, err = GetTrayAppConfigDir(); err != nil {
			return err
		}
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName), t.App)
	if err != nil {
		return err
	}

	return t.send(port, secret, WebhookPayload{
		Text:       text,
		DurationMs: constants.NotificationDurationMs,
	})
}

// GetTrayAppConfigDir returns the directory holding the tray app's lockfile.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// settings.json may point the lockfile somewhere else
	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err == nil {
		var store struct {
			Settings struct {
				LockfileDir *string `json:"lockfile_dir"`
			} `json:"settings"`
		}
		if json.Unmarshal(data, &store) == nil && store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
			return *store.Settings.LockfileDir, nil
		}
	}

	return trayConfigDir, nil
}

// findAndValidateTrayProcess parses a "port|pid|secret" lockfile and checks
// that pid is a live process of app.
func findAndValidateTrayProcess(lockfilePath, app string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), app) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, app, process.Executable())
	}

	return port, secret, nil
}

func (t *Tray) send(port, secret string, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s:%s", t.host, port), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, secret)

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
