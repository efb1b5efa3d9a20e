// Package models defines the shared data types for agentflow runs.
package models

import (
	"strings"
	"time"
)

// SubTaskStatus represents the current state of a sub-task.
type SubTaskStatus string

const (
	// SubTaskPending indicates the sub-task has not started.
	SubTaskPending SubTaskStatus = "pending"
	// SubTaskInProgress indicates the sub-task is being executed.
	SubTaskInProgress SubTaskStatus = "in_progress"
	// SubTaskCompleted indicates the sub-task produced a result.
	SubTaskCompleted SubTaskStatus = "completed"
	// SubTaskFailed indicates the sub-task failed and halted the run.
	SubTaskFailed SubTaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s SubTaskStatus) Valid() bool {
	switch s {
	case SubTaskPending, SubTaskInProgress, SubTaskCompleted, SubTaskFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true for Completed and Failed.
func (s SubTaskStatus) Terminal() bool {
	return s == SubTaskCompleted || s == SubTaskFailed
}

// CanTransition reports whether moving from s to next is allowed.
// Statuses only move forward: pending -> in_progress -> completed|failed.
func (s SubTaskStatus) CanTransition(next SubTaskStatus) bool {
	switch s {
	case SubTaskPending:
		return next == SubTaskInProgress
	case SubTaskInProgress:
		return next == SubTaskCompleted || next == SubTaskFailed
	default:
		return false
	}
}

// AgentRole is the persona a sub-task is assigned to.
type AgentRole string

const (
	// RoleResearcher gathers information.
	RoleResearcher AgentRole = "researcher"
	// RoleAnalyst analyzes data and summarizes findings.
	RoleAnalyst AgentRole = "analyst"
	// RoleWriter drafts report sections.
	RoleWriter AgentRole = "writer"
)

// Roles lists the recognized roles in prompt order.
var Roles = []AgentRole{RoleResearcher, RoleAnalyst, RoleWriter}

// roleAliases maps accepted labels to roles. The Spanish labels come from
// the original demo prompts and still show up in model output.
var roleAliases = map[string]AgentRole{
	"researcher":   RoleResearcher,
	"investigador": RoleResearcher,
	"analyst":      RoleAnalyst,
	"analista":     RoleAnalyst,
	"writer":       RoleWriter,
	"escritor":     RoleWriter,
}

// ParseRole maps a label to a known role, case-insensitively.
func ParseRole(label string) (AgentRole, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(label))]
	return role, ok
}

// Valid returns true if the role is in the closed set.
func (r AgentRole) Valid() bool {
	switch r {
	case RoleResearcher, RoleAnalyst, RoleWriter:
		return true
	default:
		return false
	}
}

// Title returns the role capitalized for display.
func (r AgentRole) Title() string {
	if r == "" {
		return "Agent"
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// SubTask is one unit of delegated work produced by decomposition.
type SubTask struct {
	// ID is the 1-based ordinal in decomposition order.
	ID int `json:"id" yaml:"id"`
	// Description is the instruction given to the executing agent.
	Description string `json:"description" yaml:"description"`
	// Role is the assigned persona. Empty in the plain variant.
	Role AgentRole `json:"role,omitempty" yaml:"role,omitempty"`
	// Status is the current state of the sub-task.
	Status SubTaskStatus `json:"status" yaml:"status"`
	// Result holds the agent output once completed.
	Result string `json:"result,omitempty" yaml:"result,omitempty"`
	// Error holds the failure message if the sub-task failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// StartedAt is when the sub-task went in progress.
	StartedAt *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	// CompletedAt is when the sub-task reached a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// ContextEntry is one completed sub-task as seen by later stages.
type ContextEntry struct {
	Description string    `json:"description" yaml:"description"`
	Role        AgentRole `json:"role,omitempty" yaml:"role,omitempty"`
	Result      string    `json:"result" yaml:"result"`
}
