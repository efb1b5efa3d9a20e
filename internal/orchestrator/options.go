package orchestrator

import (
	"time"

	"github.com/ShayCichocki/agentflow/internal/api"
	"github.com/ShayCichocki/agentflow/internal/prompt"
	"github.com/google/uuid"
)

// StageOptions holds the completion options used for each stage.
type StageOptions struct {
	Decompose api.Options
	Execute   api.Options
	Summarize api.Options
}

// DefaultStageOptions returns deterministic-leaning planning and execution
// with a warmer summary. Decomposition always asks for structured output.
func DefaultStageOptions() StageOptions {
	return StageOptions{
		Decompose: api.Options{ExpectStructured: true, Temperature: 0.2},
		Execute:   api.Options{Temperature: 0.3},
		Summarize: api.Options{Temperature: 0.7},
	}
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

type orchestratorOptions struct {
	builder   *prompt.Builder
	stageOpts StageOptions
	logger    *DebugLogger
	listeners []Listener
	newRunID  func() string
	now       func() time.Time
}

func defaultOptions() *orchestratorOptions {
	return &orchestratorOptions{
		builder:   prompt.New(prompt.VariantRoles, prompt.DefaultLanguage),
		stageOpts: DefaultStageOptions(),
		logger:    NopLogger(),
		newRunID:  uuid.NewString,
		now:       time.Now,
	}
}

// WithBuilder sets the prompt builder, which also selects the variant.
func WithBuilder(b *prompt.Builder) Option {
	return func(o *orchestratorOptions) { o.builder = b }
}

// WithStageOptions sets per-stage completion options.
func WithStageOptions(s StageOptions) Option {
	return func(o *orchestratorOptions) { o.stageOpts = s }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *orchestratorOptions) { o.logger = l }
}

// WithListener registers a listener before the first run.
func WithListener(l Listener) Option {
	return func(o *orchestratorOptions) { o.listeners = append(o.listeners, l) }
}

// WithRunIDFunc overrides run ID generation (mainly for testing).
func WithRunIDFunc(f func() string) Option {
	return func(o *orchestratorOptions) { o.newRunID = f }
}

// WithClock overrides the time source (mainly for testing).
func WithClock(now func() time.Time) Option {
	return func(o *orchestratorOptions) { o.now = now }
}
