package system

import (
	"fmt"

	"github.com/julianstephens/habitkeep/internal/cli"
	"github.com/julianstephens/habitkeep/internal/notifier"
)

// NotifyCmd sends one message to the companion tray app, so the tray setup
// can be checked without completing a habit.
type NotifyCmd struct {
	Text   string `arg:"" optional:"" help:"Message to send." default:"habitkeep notifications are working"`
	DryRun bool   `help:"Print the message and where the lockfile is looked up instead of sending it."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	tray := ctx.Tray(nil)

	if c.DryRun {
		dir := tray.Dir
		if dir == "" {
			var err error
			if dir, err = notifier.GetTrayAppConfigDir(); err != nil {
				return err
			}
		}
		ctx.Printf("[DryRun] %s\n", c.Text)
		ctx.Printf("  tray app: %s\n  lockfile dir: %s\n", tray.App, dir)
		return nil
	}

	if err := tray.Notify(c.Text); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	ctx.Println("✓ Notification sent")
	if !ctx.Config.Notifications.Tray {
		ctx.Println("  Set tray = true under [notifications] to receive completion messages there.")
	}
	return nil
}
