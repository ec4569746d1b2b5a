package tui

import (
	"time"

	"newsshorts/pipeline"
)

// Messages for the tea program (polling-based)

// StatusUpdateMsg carries the result of a status poll
type StatusUpdateMsg struct {
	Status *pipeline.Status
	Err    error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// RunStartedMsg is sent after the user asked for a run
type RunStartedMsg struct {
	RunID string
	Err   error
}
