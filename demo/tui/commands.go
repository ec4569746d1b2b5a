package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const pollInterval = 500 * time.Millisecond

// pollStatus creates a command to poll the service status
func pollStatus(client *Client) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus(context.Background())
		return StatusUpdateMsg{
			Status: status,
			Err:    err,
		}
	}
}

// triggerRun creates a command that starts a pipeline run
func triggerRun(client *Client) tea.Cmd {
	return func() tea.Msg {
		id, err := client.Start(context.Background())
		return RunStartedMsg{RunID: id, Err: err}
	}
}

// tickCmd creates a command that ticks every pollInterval
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
