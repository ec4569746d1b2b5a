package pipeline

import (
	"fmt"
	"sync"
	"time"

	"newsshorts/config"
)

// State is the pipeline stage currently running.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateFiltering  State = "filtering"
	StateRating     State = "rating"
	StateScripting  State = "scripting"
	StateRendering  State = "rendering"
	StatePublishing State = "publishing"
	StateComplete   State = "complete"
	StateError      State = "error"
)

// Busy reports whether a run is in flight.
func (s State) Busy() bool {
	return s != StateIdle && s != StateComplete && s != StateError
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// VideoStatus is a rendered (and possibly published) video of the current run.
type VideoStatus struct {
	Kind     string `json:"kind"`
	Language string `json:"language"`
	Path     string `json:"path"`
	VideoID  string `json:"video_id,omitempty"`
}

// Status is the JSON snapshot served by the status endpoint.
type Status struct {
	State         State         `json:"state"`
	RunID         string        `json:"run_id,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	Logs          []LogEntry    `json:"logs"`
	FetchedCount  int           `json:"fetched_count"`
	SelectedCount int           `json:"selected_count"`
	Videos        []VideoStatus `json:"videos"`
	Error         string        `json:"error,omitempty"`
}

// StatusTracker holds the progress of the latest run with thread-safe access.
type StatusTracker struct {
	mu sync.RWMutex

	state     State
	runID     string
	startedAt time.Time
	fetched   int
	selected  int
	videos    []VideoStatus

	// ring buffer
	logs    []LogEntry
	maxLogs int
	lastErr error

	now func() time.Time
}

// NewStatusTracker keeps the last maxLogs log lines; zero means
// config.MaxStatusLogs.
func NewStatusTracker(maxLogs int) *StatusTracker {
	if maxLogs <= 0 {
		maxLogs = config.MaxStatusLogs
	}
	return &StatusTracker{
		state:   StateIdle,
		logs:    make([]LogEntry, 0),
		maxLogs: maxLogs,
		now:     time.Now,
	}
}

// Begin resets the tracker for a new run. Logs of the previous run are kept
// so the dashboard does not blank out between runs.
func (t *StatusTracker) Begin(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateFetching
	t.runID = runID
	t.startedAt = t.now()
	t.fetched = 0
	t.selected = 0
	t.videos = nil
	t.lastErr = nil
	t.appendLog(fmt.Sprintf("Run %s started", runID))
}

// AddLog adds a log entry
func (t *StatusTracker) AddLog(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.appendLog(message)
}

// appendLog must be called with the lock held.
func (t *StatusTracker) appendLog(message string) {
	t.logs = append(t.logs, LogEntry{Timestamp: t.now(), Message: message})
	if len(t.logs) > t.maxLogs {
		t.logs = t.logs[len(t.logs)-t.maxLogs:]
	}
}

func (t *StatusTracker) SetState(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

func (t *StatusTracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// SetError moves the tracker to the error state and logs the message.
func (t *StatusTracker) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateError
	t.lastErr = err
	t.appendLog(fmt.Sprintf("Error: %v", err))
}

func (t *StatusTracker) SetCounts(fetched, selected int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetched = fetched
	t.selected = selected
}

func (t *StatusTracker) AddVideo(v VideoStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.videos = append(t.videos, v)
}

// Status returns a snapshot of the tracker.
func (t *StatusTracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	resp := Status{
		State:         t.state,
		RunID:         t.runID,
		Logs:          append([]LogEntry{}, t.logs...),
		FetchedCount:  t.fetched,
		SelectedCount: t.selected,
		Videos:        append([]VideoStatus{}, t.videos...),
	}
	if !t.startedAt.IsZero() {
		started := t.startedAt
		resp.StartedAt = &started
	}
	if t.lastErr != nil {
		resp.Error = t.lastErr.Error()
	}
	return resp
}
