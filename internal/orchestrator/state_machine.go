package orchestrator

import (
	"fmt"

	"github.com/ShayCichocki/agentflow/pkg/models"
)

var allowedTransitions = map[models.Stage]map[models.Stage]struct{}{
	models.StageIdle: {
		models.StageDecomposing: {},
	},
	models.StageDecomposing: {
		models.StageExecuting: {},
		models.StageFailed:    {},
	},
	models.StageExecuting: {
		// Executing -> Executing advances the cursor to the next sub-task.
		models.StageExecuting:   {},
		models.StageSummarizing: {},
		models.StageFailed:      {},
	},
	models.StageSummarizing: {
		models.StageDone:   {},
		models.StageFailed: {},
	},
	models.StageDone: {
		models.StageIdle: {},
	},
	models.StageFailed: {
		models.StageIdle: {},
	},
}

// ValidateStage returns an error for stages outside the pipeline.
func ValidateStage(stage models.Stage) error {
	if _, ok := allowedTransitions[stage]; !ok {
		return fmt.Errorf("invalid stage: %q", stage)
	}
	return nil
}

// ValidateTransition returns an error unless from -> to is an edge of the pipeline.
func ValidateTransition(from, to models.Stage) error {
	if err := ValidateStage(from); err != nil {
		return err
	}
	if err := ValidateStage(to); err != nil {
		return err
	}
	if _, ok := allowedTransitions[from][to]; !ok {
		return fmt.Errorf("invalid stage transition: %s -> %s", from, to)
	}
	return nil
}
