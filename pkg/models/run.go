package models

import "time"

// Stage is the orchestrator's position in the pipeline.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageDecomposing Stage = "decomposing"
	StageExecuting   Stage = "executing"
	StageSummarizing Stage = "summarizing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Terminal returns true for Done and Failed.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Active returns true while a run is in flight.
func (s Stage) Active() bool {
	switch s {
	case StageDecomposing, StageExecuting, StageSummarizing:
		return true
	default:
		return false
	}
}

// LogEntry is one line of the activity log.
type LogEntry struct {
	// ID is monotonic per orchestrator and never reused within a run.
	ID uint64 `json:"id" yaml:"id"`
	// Agent is the display name of the acting agent (Planner, a role, Finalizer).
	Agent string `json:"agent" yaml:"agent"`
	// Message describes what the agent is doing.
	Message string `json:"message" yaml:"message"`
	// Status mirrors the sub-task status vocabulary.
	Status SubTaskStatus `json:"status" yaml:"status"`
	// Detail is a short outcome line once the entry finished.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	// Error is set when the entry failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// Timestamp is when the entry was created.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Snapshot is a read-only copy of an orchestration run.
type Snapshot struct {
	RunID      string     `json:"run_id" yaml:"run_id"`
	Goal       string     `json:"goal" yaml:"goal"`
	Stage      Stage      `json:"stage" yaml:"stage"`
	Cursor     int        `json:"cursor" yaml:"cursor"`
	SubTasks   []SubTask  `json:"subtasks" yaml:"subtasks"`
	Report     string     `json:"report,omitempty" yaml:"report,omitempty"`
	Error      string     `json:"error,omitempty" yaml:"error,omitempty"`
	Log        []LogEntry `json:"log,omitempty" yaml:"log,omitempty"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	// InputTokens and OutputTokens are consumed by this run's calls.
	InputTokens  int64 `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64 `json:"output_tokens" yaml:"output_tokens"`
}

// Context derives the ordered results of completed sub-tasks.
func (s Snapshot) Context() []ContextEntry {
	var entries []ContextEntry
	for _, st := range s.SubTasks {
		if st.Status != SubTaskCompleted {
			continue
		}
		entries = append(entries, ContextEntry{
			Description: st.Description,
			Role:        st.Role,
			Result:      st.Result,
		})
	}
	return entries
}

// InProgressCount returns how many sub-tasks are currently in progress.
func (s Snapshot) InProgressCount() int {
	n := 0
	for _, st := range s.SubTasks {
		if st.Status == SubTaskInProgress {
			n++
		}
	}
	return n
}

// CountByStatus returns the number of sub-tasks with the given status.
func (s Snapshot) CountByStatus(status SubTaskStatus) int {
	n := 0
	for _, st := range s.SubTasks {
		if st.Status == status {
			n++
		}
	}
	return n
}

// Duration returns the elapsed time, up to now for runs still in flight.
func (s Snapshot) Duration() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt != nil {
		return s.FinishedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

// Clone returns a deep copy safe to hand to observers.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.SubTasks != nil {
		out.SubTasks = make([]SubTask, len(s.SubTasks))
		for i, st := range s.SubTasks {
			st.StartedAt = cloneTime(st.StartedAt)
			st.CompletedAt = cloneTime(st.CompletedAt)
			out.SubTasks[i] = st
		}
	}
	if s.Log != nil {
		out.Log = make([]LogEntry, len(s.Log))
		copy(out.Log, s.Log)
	}
	out.FinishedAt = cloneTime(s.FinishedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
