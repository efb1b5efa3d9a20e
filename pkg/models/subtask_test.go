package models

import (
	"testing"
	"time"
)

func TestSubTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status SubTaskStatus
		want   bool
	}{
		{"pending is valid", SubTaskPending, true},
		{"in_progress is valid", SubTaskInProgress, true},
		{"completed is valid", SubTaskCompleted, true},
		{"failed is valid", SubTaskFailed, true},
		{"empty string is invalid", SubTaskStatus(""), false},
		{"unknown status is invalid", SubTaskStatus("done"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("SubTaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestSubTaskStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from SubTaskStatus
		to   SubTaskStatus
		want bool
	}{
		{SubTaskPending, SubTaskInProgress, true},
		{SubTaskPending, SubTaskCompleted, false},
		{SubTaskPending, SubTaskFailed, false},
		{SubTaskInProgress, SubTaskCompleted, true},
		{SubTaskInProgress, SubTaskFailed, true},
		{SubTaskInProgress, SubTaskPending, false},
		{SubTaskCompleted, SubTaskInProgress, false},
		{SubTaskCompleted, SubTaskFailed, false},
		{SubTaskFailed, SubTaskPending, false},
		{SubTaskFailed, SubTaskCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		label  string
		want   AgentRole
		wantOK bool
	}{
		{"researcher", RoleResearcher, true},
		{"Analyst", RoleAnalyst, true},
		{"  WRITER ", RoleWriter, true},
		{"Investigador", RoleResearcher, true},
		{"Analista", RoleAnalyst, true},
		{"Escritor", RoleWriter, true},
		{"Orquestador", "", false},
		{"designer", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseRole(tt.label)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAgentRole_Title(t *testing.T) {
	if got := RoleResearcher.Title(); got != "Researcher" {
		t.Errorf("Title() = %q, want %q", got, "Researcher")
	}
	if got := AgentRole("").Title(); got != "Agent" {
		t.Errorf("empty Title() = %q, want %q", got, "Agent")
	}
}

func TestSnapshot_Context(t *testing.T) {
	snap := Snapshot{
		SubTasks: []SubTask{
			{ID: 1, Description: "first", Role: RoleResearcher, Status: SubTaskCompleted, Result: "r1"},
			{ID: 2, Description: "second", Status: SubTaskCompleted, Result: "r2"},
			{ID: 3, Description: "third", Status: SubTaskInProgress},
			{ID: 4, Description: "fourth", Status: SubTaskPending},
		},
	}

	entries := snap.Context()
	if len(entries) != 2 {
		t.Fatalf("len(Context()) = %d, want 2", len(entries))
	}
	if entries[0].Description != "first" || entries[0].Result != "r1" || entries[0].Role != RoleResearcher {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Description != "second" || entries[1].Result != "r2" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if snap.InProgressCount() != 1 {
		t.Errorf("InProgressCount() = %d, want 1", snap.InProgressCount())
	}
	if snap.CountByStatus(SubTaskPending) != 1 {
		t.Errorf("CountByStatus(pending) = %d, want 1", snap.CountByStatus(SubTaskPending))
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	now := time.Now()
	snap := Snapshot{
		SubTasks:   []SubTask{{ID: 1, Status: SubTaskInProgress, StartedAt: &now}},
		Log:        []LogEntry{{ID: 1, Agent: "Planner"}},
		FinishedAt: &now,
	}

	clone := snap.Clone()
	clone.SubTasks[0].Status = SubTaskFailed
	*clone.SubTasks[0].StartedAt = now.Add(time.Hour)
	clone.Log[0].Agent = "changed"
	*clone.FinishedAt = now.Add(time.Hour)

	if snap.SubTasks[0].Status != SubTaskInProgress {
		t.Error("Clone shares sub-task slice with original")
	}
	if !snap.SubTasks[0].StartedAt.Equal(now) {
		t.Error("Clone shares StartedAt pointer with original")
	}
	if snap.Log[0].Agent != "Planner" {
		t.Error("Clone shares log slice with original")
	}
	if !snap.FinishedAt.Equal(now) {
		t.Error("Clone shares FinishedAt pointer with original")
	}
}

func TestStage_Terminal(t *testing.T) {
	tests := []struct {
		stage    Stage
		terminal bool
		active   bool
	}{
		{StageIdle, false, false},
		{StageDecomposing, false, true},
		{StageExecuting, false, true},
		{StageSummarizing, false, true},
		{StageDone, true, false},
		{StageFailed, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.stage.Active(); got != tt.active {
				t.Errorf("Active() = %v, want %v", got, tt.active)
			}
		})
	}
}
