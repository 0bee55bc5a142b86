package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAddHabit:
		content = m.form.View()
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = m.viewList()
	}

	return frameStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m.keys),
	))
}

func (m Model) viewHeader() string {
	title := headerStyle.Render("habitkeep")
	if m.showDeleted {
		title += " " + noticeStyle.Render("showing deleted")
	}
	return title
}

func (m Model) viewList() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one.\n"
	}
	return m.list.View()
}

func (m Model) viewConfirmDelete() string {
	name := m.habitToDeleteID
	for _, it := range m.list.Items() {
		if i, ok := it.(Item); ok && i.Habit.ID == m.habitToDeleteID {
			name = i.Habit.Title
		}
	}
	return fmt.Sprintf("\n%s\n\n%s\n",
		errStyle.Render(fmt.Sprintf("Delete %q?", name)),
		mutedStyle.Render("It can be restored later. [y/N]"))
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusFailed {
		return errStyle.Render(m.status)
	}
	return okStyle.Render(m.status)
}
