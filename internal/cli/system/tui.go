package system

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/client"
	"github.com/julianstephens/habitkeep/internal/completion"
	"github.com/julianstephens/habitkeep/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	cl, err := ctx.Client()
	if err != nil {
		return err
	}
	if _, _, err := cl.Identity(); err != nil {
		if errors.Is(err, client.ErrNoToken) {
			return fmt.Errorf("not logged in; run 'habitkeep login' first")
		}
		return err
	}

	svc, err := ctx.Completion(nil)
	if err != nil {
		return err
	}

	// Console output would corrupt the alt screen, so only the tray gets a
	// copy of each outcome.
	var extra completion.Notifier
	if ctx.Config.Notifications.Tray {
		extra = ctx.Tray(nil)
	}

	p := tea.NewProgram(tui.NewModel(cl, svc, extra), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
