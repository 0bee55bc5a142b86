package notifier

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/streak"
)

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Success lines take the colour of the streak's badge.
	badgeStyles = map[string]lipgloss.Style{
		streak.BadgeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		streak.BadgeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		streak.BadgeWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		streak.BadgeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("197")).Bold(true),
	}
)

func badgeStyle(n int) lipgloss.Style {
	return badgeStyles[streak.TierFor(n).Badge]
}

// Console writes one styled line per notification.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) println(style lipgloss.Style, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, style.Render(text))
}

func (c *Console) Success(h models.Habit, n int) {
	c.println(badgeStyle(n), "✓ "+successText(h, n))
}

func (c *Console) AlreadyCompleted(h models.Habit) {
	c.println(infoStyle, alreadyText(h))
}

func (c *Console) Failure(h models.Habit, err error) {
	c.println(errorStyle, "✗ "+failureText(h, err))
}
