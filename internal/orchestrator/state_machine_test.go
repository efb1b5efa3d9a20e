package orchestrator

import (
	"testing"

	"github.com/ShayCichocki/agentflow/pkg/models"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to models.Stage
		ok       bool
	}{
		{models.StageIdle, models.StageDecomposing, true},
		{models.StageIdle, models.StageExecuting, false},
		{models.StageDecomposing, models.StageExecuting, true},
		{models.StageDecomposing, models.StageFailed, true},
		{models.StageDecomposing, models.StageSummarizing, false},
		{models.StageExecuting, models.StageExecuting, true},
		{models.StageExecuting, models.StageSummarizing, true},
		{models.StageExecuting, models.StageDone, false},
		{models.StageSummarizing, models.StageDone, true},
		{models.StageSummarizing, models.StageFailed, true},
		{models.StageDone, models.StageIdle, true},
		{models.StageDone, models.StageDecomposing, false},
		{models.StageFailed, models.StageIdle, true},
		{models.StageFailed, models.StageExecuting, false},
		{models.Stage("bogus"), models.StageIdle, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if (err == nil) != tt.ok {
				t.Errorf("ValidateTransition(%s, %s) = %v, want ok=%v", tt.from, tt.to, err, tt.ok)
			}
		})
	}
}

func TestStageError(t *testing.T) {
	tests := []struct {
		err  *StageError
		want string
	}{
		{&StageError{Stage: models.StageDecomposing, Err: errString("bad json")}, "decomposition failed: bad json"},
		{&StageError{Stage: models.StageExecuting, TaskID: 2, Err: errString("timeout")}, "sub-task 2 failed: timeout"},
		{&StageError{Stage: models.StageSummarizing, Err: errString("empty")}, "summarization failed: empty"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
