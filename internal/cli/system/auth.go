package system

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/julianstephens/habitkeep/internal/api"
	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/client"
	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/keyring"
)

// readSecret is a seam for tests.
var readSecret = func() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no token given and stdin is not a terminal; pass --token")
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type LoginCmd struct {
	Token string `help:"API token. Prompted for when omitted."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	token := strings.TrimSpace(c.Token)
	if token == "" {
		fmt.Fprint(os.Stderr, "API token: ")
		t, err := readSecret()
		if err != nil {
			return err
		}
		token = strings.TrimSpace(t)
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	cl, err := client.New(client.Options{BaseURL: ctx.Config.APIURL, Token: token})
	if err != nil {
		return err
	}
	email, name, err := cl.Identity()
	if err != nil {
		return err
	}

	if err := keyring.SetToken(token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	who := email
	if name != "" {
		who = fmt.Sprintf("%s <%s>", name, email)
	}
	ctx.Printf("✓ Logged in as %s\n", who)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			ctx.Println("Not logged in.")
			return nil
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	ctx.Println("✓ Logged out")
	return nil
}

// TokenCmd mints a token signed with the server secret, for local
// development and self-hosted single-user setups.
type TokenCmd struct {
	Email string        `arg:"" help:"Email claim (habit owner)."`
	Name  string        `help:"Display name claim."`
	TTL   time.Duration `help:"Token lifetime. Zero means no expiry." default:"720h"`
	Save  bool          `help:"Store the token in the keyring as if by login."`
}

func (c *TokenCmd) Run(ctx *cli.Context) error {
	secret := ctx.Config.Server.JWTSecret
	if secret == "" {
		return fmt.Errorf("%s must be set to mint tokens", constants.EnvJWTSecret)
	}
	token, err := api.IssueToken(secret, c.Email, c.Name, c.TTL)
	if err != nil {
		return err
	}
	if c.Save {
		if err := keyring.SetToken(token); err != nil {
			return fmt.Errorf("failed to store token in keyring: %w", err)
		}
		ctx.Printf("✓ Token for %s stored in OS keyring\n", c.Email)
		return nil
	}
	ctx.Println(token)
	return nil
}
