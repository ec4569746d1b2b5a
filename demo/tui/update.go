package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	case StatusUpdateMsg:
		return m.handleStatusUpdate(msg)
	case RunStartedMsg:
		return m.handleRunStarted(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r", "R":
		if m.Connected && !m.Status.State.Busy() {
			m.Notice = "Starting run..."
			return m, triggerRun(m.Client)
		}
	}
	return m, nil
}

func (m Model) handleStatusUpdate(msg StatusUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Connected = false
		m.Err = msg.Err
		return m, nil
	}
	m.Connected = true
	m.Err = nil
	if msg.Status != nil {
		m.Status = *msg.Status
	}
	return m, nil
}

func (m Model) handleRunStarted(msg RunStartedMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, ErrBusy):
		m.Notice = "A run is already in progress"
	case msg.Err != nil:
		m.Notice = ""
		m.Err = msg.Err
	default:
		m.Notice = fmt.Sprintf("Run %s started", msg.RunID)
	}
	return m, pollStatus(m.Client)
}
