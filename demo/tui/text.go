package tui

// UI Text Constants
const (
	TextTitle = "📰 News Shorts Pipeline"

	// Footer
	TextFooterIdle    = "Press 'r' to start a run | Press 'q' to detach"
	TextFooterRunning = "Press 'q' to detach (the run continues on the server)"
)
