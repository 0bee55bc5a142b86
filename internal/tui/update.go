package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitkeep/internal/constants"
)

var errTitleRequired = errors.New("title is required")

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := frameStyle.GetFrameSize()
		// title, status and help lines
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
		return m, nil

	case habitsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus("Failed to load habits: "+msg.err.Error(), true)
			return m, nil
		}
		m.setHabits(msg.habits, msg.today)
		return m, nil

	case completionDoneMsg:
		m.busy = false
		m.setStatus(msg.text, msg.failed)
		return m, m.loadHabits()

	case habitChangedMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(msg.text, false)
		return m, m.loadHabits()
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m.updateList(msg)
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.statusFailed = failed
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(keyMsg, m.keys.Refresh):
		return m, m.loadHabits()

	case key.Matches(keyMsg, m.keys.ShowDeleted):
		m.showDeleted = !m.showDeleted
		return m, m.loadHabits()

	case key.Matches(keyMsg, m.keys.Complete):
		// One completion at a time; a second press while busy is ignored.
		if i, ok := m.selected(); ok && !i.IsDeleted() && !m.busy {
			m.busy = true
			m.setStatus("Completing "+i.Habit.Title+"...", false)
			return m, m.completeHabit(i.Habit)
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Add):
		m.habitForm = &HabitFormModel{Category: constants.Categories[0]}
		m.form = newHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case key.Matches(keyMsg, m.keys.Delete):
		if i, ok := m.selected(); ok && !i.IsDeleted() {
			m.habitToDeleteID = i.Habit.ID
			m.state = StateConfirmDelete
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Restore):
		if i, ok := m.selected(); ok && i.IsDeleted() {
			m.busy = true
			return m, m.restoreHabit(i.Habit.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateList
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateList
		m.busy = true
		return m, tea.Batch(cmd, m.createHabit(*m.habitForm))
	case huh.StateAborted:
		m.state = StateList
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		id := m.habitToDeleteID
		m.habitToDeleteID = ""
		m.state = StateList
		m.busy = true
		return m, m.deleteHabit(id)
	case "n", "N", "esc":
		m.habitToDeleteID = ""
		m.state = StateList
	}
	return m, nil
}
