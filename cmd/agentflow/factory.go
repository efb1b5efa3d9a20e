package main

import (
	"fmt"
	"log"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/agentflow/internal/api"
	"github.com/ShayCichocki/agentflow/internal/config"
	"github.com/ShayCichocki/agentflow/internal/orchestrator"
	"github.com/ShayCichocki/agentflow/internal/prompt"
	"github.com/ShayCichocki/agentflow/internal/state"
)

// runEnv bundles everything a run needs. Close releases it.
type runEnv struct {
	cfg     *config.Config
	client  *api.Client
	orch    *orchestrator.Orchestrator
	logger  *orchestrator.DebugLogger
	history state.StateStore
}

// newRunEnv loads and validates config, then wires the client,
// orchestrator, debug logger and optional history journal.
func newRunEnv() (*runEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logPath := cfg.Log.Path
	if logFile != "" {
		logPath = logFile
	}
	logger := orchestrator.NewDebugLoggerOrNop(logPath)
	if warning := apiKeyWarning(cfg); warning != "" {
		logger.Log("[config] %s", warning)
	}

	client, err := newClient(cfg)
	if err != nil {
		logger.Close()
		return nil, err
	}
	logger.Log("[api] model %s, per-call timeout %s", client.Model(), client.Timeout())
	builder, err := newBuilder(cfg)
	if err != nil {
		logger.Close()
		return nil, err
	}

	rt := &runEnv{cfg: cfg, client: client, logger: logger}
	opts := []orchestrator.Option{
		orchestrator.WithBuilder(builder),
		orchestrator.WithStageOptions(stageOptions(cfg)),
		orchestrator.WithLogger(logger),
	}

	if cfg.State.Enabled {
		db, err := openHistory(cfg)
		if err != nil {
			// History is optional; a broken journal must not block a run.
			log.Printf("[agentflow] warning: run history disabled: %v", err)
		} else {
			logger.Log("[state] journal %s (%s driver)", db.Path(), db.Driver())
			rt.history = db
			opts = append(opts, orchestrator.WithListener(historyListener(db, logger)))
		}
	}

	rt.orch = orchestrator.New(client, opts...)

	if err := config.Watch(rt.applyConfig, rt.rejectConfig); err != nil {
		logger.Log("[config] watch failed: %v", err)
	}

	return rt, nil
}

// applyConfig hands reloaded stage settings to the orchestrator. They take
// effect on the next run.
func (rt *runEnv) applyConfig(cfg *config.Config) {
	rt.orch.SetStageOptions(stageOptions(cfg))
	if b, err := newBuilder(cfg); err == nil {
		rt.orch.SetBuilder(b)
	} else {
		rt.logger.Log("[config] ignoring reloaded prompt settings: %v", err)
	}
	rt.logger.Log("[config] reloaded stage options")
}

// rejectConfig records a reload that could not be applied. The previous
// stage options stay in effect.
func (rt *runEnv) rejectConfig(err error) {
	rt.logger.Log("[config] ignoring reloaded config: %v", err)
}

// Close releases the history journal and the debug log.
func (rt *runEnv) Close() {
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			rt.logger.Log("[state] close: %v", err)
		}
	}
	rt.logger.Close()
}

// newClient creates the completion client from config.
func newClient(cfg *config.Config) (*api.Client, error) {
	apiKey := ""
	if !cfg.Anthropic.Bedrock.Enabled {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		MaxTokens:     cfg.Anthropic.MaxTokens,
		Timeout:       cfg.Anthropic.Timeout,
		BaseURL:       cfg.Anthropic.BaseURL,
		UseAWSBedrock: cfg.Anthropic.Bedrock.Enabled,
		AWSRegion:     cfg.Anthropic.Bedrock.Region,
		AWSProfile:    cfg.Anthropic.Bedrock.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return client, nil
}

// newBuilder creates the prompt builder for the configured variant.
func newBuilder(cfg *config.Config) (*prompt.Builder, error) {
	variant, err := prompt.ParseVariant(cfg.Prompt.Variant)
	if err != nil {
		return nil, err
	}
	return prompt.New(variant, cfg.Prompt.Language), nil
}

// stageOptions maps per-stage temperatures onto completion options.
func stageOptions(cfg *config.Config) orchestrator.StageOptions {
	opts := orchestrator.DefaultStageOptions()
	opts.Decompose.Temperature = cfg.Stages.Decompose.Temperature
	opts.Execute.Temperature = cfg.Stages.Execute.Temperature
	opts.Summarize.Temperature = cfg.Stages.Summarize.Temperature
	return opts
}

// openHistory opens and migrates the run journal.
func openHistory(cfg *config.Config) (*state.DB, error) {
	if cfg.State.Path == "" {
		return state.OpenDefault(cfg.State.Driver)
	}
	db, err := state.Open(cfg.State.Path, cfg.State.Driver)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return db, nil
}

// historyListener journals every run that reaches a terminal stage.
func historyListener(store state.RunStore, logger *orchestrator.DebugLogger) orchestrator.Listener {
	return func(ev orchestrator.Event) {
		if ev.Type != orchestrator.EventRunDone && ev.Type != orchestrator.EventRunFailed {
			return
		}
		if err := store.SaveRun(ev.Snapshot); err != nil {
			logger.Log("[state] save run %s: %v", ev.Snapshot.RunID, err)
			return
		}
		logger.Log("[state] saved run %s (%s)", ev.Snapshot.RunID, ev.Snapshot.Stage)
	}
}

// apiKeyWarning flags a configured key that does not look like an Anthropic
// key. Bedrock runs and a missing key yield no warning.
func apiKeyWarning(cfg *config.Config) string {
	if cfg.Anthropic.Bedrock.Enabled {
		return ""
	}
	key, err := config.GetAPIKey(cfg)
	if err != nil {
		return ""
	}
	if err := config.ValidateAPIKey(key); err != nil {
		return fmt.Sprintf("API key from %s looks wrong: %v", config.GetAPIKeySource(cfg), err)
	}
	return ""
}

func debugEnabled() bool {
	return os.Getenv("AGENTFLOW_DEBUG") != ""
}
