package orchestrator

import (
	"time"

	"github.com/ShayCichocki/agentflow/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventRunStarted indicates a goal was accepted and decomposition began.
	EventRunStarted EventType = "run_started"
	// EventPlanned indicates decomposition produced the sub-task list.
	EventPlanned EventType = "planned"
	// EventTaskStarted indicates a sub-task went in progress.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a sub-task produced its result.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a sub-task failed and halted the run.
	EventTaskFailed EventType = "task_failed"
	// EventRunDone indicates the final report is available.
	EventRunDone EventType = "run_done"
	// EventRunFailed indicates the run ended with an error.
	EventRunFailed EventType = "run_failed"
	// EventReset indicates run state was discarded.
	EventReset EventType = "reset"
)

// Event describes one state transition. Snapshot is a deep copy taken
// right after the transition and is safe to keep.
type Event struct {
	Type EventType
	// TaskID is the 1-based sub-task ID for task events, 0 otherwise.
	TaskID int
	// Message is a short human-readable line for the activity view.
	Message string
	// Err is set for failure events.
	Err       error
	Snapshot  models.Snapshot
	Timestamp time.Time
}

// Listener receives every transition in order. It is called synchronously
// from the goroutine that made the transition and must not call Start,
// Run or Reset on the same orchestrator.
type Listener func(Event)
