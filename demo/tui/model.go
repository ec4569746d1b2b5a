package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"newsshorts/pipeline"
)

// Model is the dashboard state, synced from the service by polling.
type Model struct {
	Client *Client

	Status    pipeline.Status
	Connected bool
	Err       error

	// Notice is a one-line message from the last key action
	Notice string
}

func NewModel(serviceURL string) Model {
	return Model{
		Client: NewClient(serviceURL),
		Status: pipeline.Status{State: pipeline.StateIdle},
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		pollStatus(m.Client),
		tickCmd(),
	)
}

// getStateText returns the headline for the current state
func (m Model) getStateText() string {
	if !m.Connected {
		return ErrorStyle.Render("❌ Not connected to the pipeline service")
	}

	style := stateStyle(m.Status.State)
	switch m.Status.State {
	case pipeline.StateIdle:
		return style.Render("👋 Ready") + "\n\n" +
			InfoStyle.Render("Press 'r' to start a run")
	case pipeline.StateFetching:
		return style.Render("⏳ Fetching RSS feeds...")
	case pipeline.StateFiltering:
		return style.Render("🔍 Ranking articles...")
	case pipeline.StateRating:
		return style.Render("⭐ Rating newsworthiness...")
	case pipeline.StateScripting:
		return style.Render("✍️  Writing scripts...")
	case pipeline.StateRendering:
		return style.Render("🎬 Rendering video...")
	case pipeline.StatePublishing:
		return style.Render("📤 Uploading to YouTube...")
	case pipeline.StateComplete:
		return style.Render("✅ COMPLETE")
	case pipeline.StateError:
		errMsg := m.Status.Error
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		return style.Render(fmt.Sprintf("❌ Error: %s", errMsg))
	default:
		return string(m.Status.State)
	}
}
