// Package prompt builds the instructions sent to the completion service
// for each pipeline stage. Everything here is pure formatting.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/agentflow/pkg/models"
)

// ErrEmptyInput is returned when a required stage input is blank.
var ErrEmptyInput = errors.New("prompt input must not be empty")

// NoContextMarker stands in for the context block before any sub-task has completed.
const NoContextMarker = "No prior context."

// contextSeparator sits between serialized context entries.
const contextSeparator = "\n\n---\n\n"

// DefaultLanguage is the answer language when none is configured.
const DefaultLanguage = "English"

// Variant selects the decomposition output shape.
type Variant string

const (
	// VariantPlain decomposes into bare description strings.
	VariantPlain Variant = "plain"
	// VariantRoles decomposes into {role, task} objects.
	VariantRoles Variant = "roles"
)

// ParseVariant validates a configured variant name.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantPlain:
		return VariantPlain, nil
	case VariantRoles, "":
		return VariantRoles, nil
	default:
		return "", fmt.Errorf("unknown prompt variant %q (want %q or %q)", s, VariantPlain, VariantRoles)
	}
}

// Builder formats stage prompts.
type Builder struct {
	Variant  Variant
	Language string
}

// New creates a Builder, defaulting the language.
func New(variant Variant, language string) *Builder {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	if variant == "" {
		variant = VariantRoles
	}
	return &Builder{Variant: variant, Language: language}
}

// Input carries the inputs for any stage.
type Input struct {
	Goal    string
	Task    models.SubTask
	Context []models.ContextEntry
}

// Build dispatches to the template for stage.
func (b *Builder) Build(stage models.Stage, in Input) (string, error) {
	switch stage {
	case models.StageDecomposing:
		return b.Decompose(in.Goal)
	case models.StageExecuting:
		return b.Execute(in.Task, in.Context)
	case models.StageSummarizing:
		return b.Summarize(in.Goal, in.Context)
	default:
		return "", fmt.Errorf("no prompt for stage %q", stage)
	}
}

// Decompose builds the planning prompt for goal.
func (b *Builder) Decompose(goal string) (string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "", fmt.Errorf("decompose goal: %w", ErrEmptyInput)
	}
	if b.Variant == VariantPlain {
		return fmt.Sprintf(decomposePlainPrompt, goal), nil
	}
	return fmt.Sprintf(decomposeRolesPrompt, goal), nil
}

// Execute builds the prompt for one sub-task given the context so far.
func (b *Builder) Execute(task models.SubTask, context []models.ContextEntry) (string, error) {
	desc := strings.TrimSpace(task.Description)
	if desc == "" {
		return "", fmt.Errorf("execute sub-task %d description: %w", task.ID, ErrEmptyInput)
	}
	ctx := FormatContext(context)
	if task.Role != "" {
		return fmt.Sprintf(executeRolePrompt, task.Role, b.language(), ctx, desc), nil
	}
	return fmt.Sprintf(executePlainPrompt, b.language(), ctx, desc), nil
}

// Summarize builds the final report prompt from every completed result.
func (b *Builder) Summarize(goal string, entries []models.ContextEntry) (string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "", fmt.Errorf("summarize goal: %w", ErrEmptyInput)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("summarize results: %w", ErrEmptyInput)
	}
	return fmt.Sprintf(summarizePrompt, goal, b.language(), FormatContext(entries)), nil
}

func (b *Builder) language() string {
	if b.Language == "" {
		return DefaultLanguage
	}
	return b.Language
}

// FormatContext serializes context entries in order, or returns
// NoContextMarker when there are none.
func FormatContext(entries []models.ContextEntry) string {
	if len(entries) == 0 {
		return NoContextMarker
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		agent := "agent"
		if e.Role != "" {
			agent = string(e.Role) + " agent"
		}
		parts[i] = fmt.Sprintf("Result of the %s for the task %q:\n%s", agent, e.Description, e.Result)
	}
	return strings.Join(parts, contextSeparator)
}
