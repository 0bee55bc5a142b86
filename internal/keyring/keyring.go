package keyring

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested account
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Account names a secret slot under the application's keyring service.
type Account string

const (
	// AccountDatabase holds the server's database connection string.
	AccountDatabase Account = constants.DefaultKeyringUser
	// AccountToken holds the bearer token the client sends to the API.
	AccountToken Account = constants.TokenKeyringUser
)

func get(acct Account) (string, error) {
	secret, err := keyring.Get(constants.AppName, string(acct))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func set(acct Account, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", acct)
	}
	if err := keyring.Set(constants.AppName, string(acct), secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", acct, err)
	}
	return nil
}

func del(acct Account) error {
	if err := keyring.Delete(constants.AppName, string(acct)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", acct, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string.
// Returns ErrNotFound if none is stored.
func GetConnectionString() (string, error) { return get(AccountDatabase) }

// SetConnectionString stores the database connection string.
func SetConnectionString(connStr string) error { return set(AccountDatabase, connStr) }

// DeleteConnectionString removes the database connection string.
func DeleteConnectionString() error { return del(AccountDatabase) }

// GetToken retrieves the API bearer token saved by `habitkeep login`.
func GetToken() (string, error) { return get(AccountToken) }

// SetToken stores the API bearer token.
func SetToken(token string) error { return set(AccountToken, token) }

// DeleteToken removes the API bearer token.
func DeleteToken() error { return del(AccountToken) }

// IsAvailable checks if the OS keyring is available on the current system.
// A not-found read still proves the backend answered.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
