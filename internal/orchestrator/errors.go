package orchestrator

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/agentflow/pkg/models"
)

var (
	// ErrRunInProgress is returned when a run is already decomposing, executing or summarizing.
	ErrRunInProgress = errors.New("a run is already in progress")
	// ErrNotIdle is returned by Start and Run when the previous run has not been reset.
	ErrNotIdle = errors.New("orchestrator holds a finished run; reset first")
	// ErrEmptyGoal is returned when the goal is blank.
	ErrEmptyGoal = errors.New("goal must not be empty")
)

// StageError attaches a failure to the stage, and sub-task if any, that was active.
type StageError struct {
	Stage models.Stage
	// TaskID is the 1-based sub-task ID, 0 outside the execute stage.
	TaskID int
	Err    error
}

func (e *StageError) Error() string {
	switch {
	case e.TaskID > 0:
		return fmt.Sprintf("sub-task %d failed: %v", e.TaskID, e.Err)
	case e.Stage == models.StageDecomposing:
		return fmt.Sprintf("decomposition failed: %v", e.Err)
	case e.Stage == models.StageSummarizing:
		return fmt.Sprintf("summarization failed: %v", e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() error { return e.Err }
